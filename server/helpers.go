package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator"
	"github.com/sgabriel/rolodex/server/apperror"
	"github.com/sgabriel/rolodex/server/backup"
	"github.com/sgabriel/rolodex/server/models"
	"github.com/sgabriel/rolodex/utils"
)

// ---------------------------------------------------------------------------------//
// Handler Helper functions
// --------------------------------------------------------------------------------//

func writeResponse(rw http.ResponseWriter, payLoad ResponsePayload, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		logg.Error(payLoad.Errors)
	} else if statusCode >= http.StatusBadRequest {
		logg.Info(payLoad.Errors)
	}

	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payLoad)
}

// writeError renders a datastore outcome with the matching status code.
func writeError(rw http.ResponseWriter, err error) {
	writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, statusCodeFor(err))
}

func statusCodeFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func RegisterValidators(validate *validator.Validate) error {
	return validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		// if whitespace in password return false
		err := validate.Var(fl.Field().String(), "contains= ")
		if err == nil {
			return false
		}
		return len(fl.Field().String()) > 0
	})
}

// pathID parses a numeric path variable. Routes constrain these vars to
// digits, so a parse failure means no row can match.
func pathID(vars map[string]string, name string) (uint, error) {
	id, err := strconv.ParseUint(vars[name], 10, 64)
	if err != nil {
		return 0, apperror.NotFound(name, vars[name])
	}

	return uint(id), nil
}

// pageParams reads the page & limit query parameters. Anything non-numeric
// comes back as zero and is clamped to the defaults by the datastore.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

// principalID returns the authenticated user's id from the request context.
// Only reachable on protected routes, where the token was already verified.
func principalID(r *http.Request) (uint, error) {
	decodedJWT, ok := r.Context().Value(RequestContextKey("decodedJWT")).(DecodedJWT)
	if !ok || decodedJWT.Claims == nil {
		return 0, apperror.Forbidden("no authenticated user")
	}

	id, err := strconv.ParseUint(decodedJWT.Claims.Subject, 10, 64)
	if err != nil {
		return 0, apperror.Forbidden("invalid token subject")
	}

	return uint(id), nil
}

// ---------------------------------------------------------------------------------//
// Server Helper functions
// --------------------------------------------------------------------------------//

func serve(server *http.Server) {
	logg.Infof("Rolodex server is listening on port%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func cleanup(backupScheduler *backup.Scheduler, server *http.Server, ds *models.Datastore) {
	if backupScheduler != nil {
		backupScheduler.Stop()
		if err := backupScheduler.BackupNow(); err != nil {
			logg.Errorf("final sqlite backup failed: %v", err)
		}
	}

	// Shutdown server gracefully
	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Fatalf("Rolodex server shutdown failed:%+s", err)
	}

	if err := ds.Close(); err != nil {
		logg.Errorf("failed to close datastore: %v", err)
	}

	logg.Infof("Rolodex server stopped properly")
}

// configDirectory retrieves the directory that holds the server's database
// and config, or exits if it can't be created.
func configDirectory(devMode bool) string {
	// Use 'rolodex' folder in home directory for prod
	configFolderName := "rolodex"
	rootDir, err := os.UserHomeDir()
	fatalOnError(err)

	// Use 'dev' folder in current directory for dev mode
	if devMode {
		configFolderName = "dev"
		rootDir, err = os.Getwd()
		fatalOnError(err)
	}

	configDir := filepath.Join(rootDir, configFolderName)

	err = utils.CreateDirIfNotExist(configDir)
	fatalOnError(err)

	return configDir
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
