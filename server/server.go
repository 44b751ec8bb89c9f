package server

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/sgabriel/rolodex/server/auth/key"
	"github.com/sgabriel/rolodex/server/backup"
	"github.com/sgabriel/rolodex/server/gstorage"
	"github.com/sgabriel/rolodex/server/logger"
	"github.com/sgabriel/rolodex/server/models"
	"github.com/sgabriel/rolodex/shared"
	"github.com/sgabriel/rolodex/utils"
	"github.com/spf13/viper"
)

var logg = logger.NewLogger()

// Server holds the request handlers' dependencies. Everything is injected so
// tests can run against an in-memory datastore and a throwaway key pair.
type Server struct {
	ds       *models.Datastore
	keyPair  *key.KeyPair
	validate *validator.Validate
}

func newServer(ds *models.Datastore, keyPair *key.KeyPair, validate *validator.Validate) *Server {
	return &Server{ds: ds, keyPair: keyPair, validate: validate}
}

func (s *Server) router() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware, s.initialContextMiddleware)

	router.HandleFunc("/health", s.healthCheck).Methods("GET")
	router.HandleFunc("/login", s.logIn).Methods("POST")
	router.HandleFunc("/.well-known/jwks.json", s.jwks).Methods("GET")

	// Registration is the only unauthenticated write.
	router.HandleFunc("/users", s.createUser).Methods("POST")

	protected := router.PathPrefix("/").Subrouter()
	protected.Use(s.protectedRouteMiddleware)

	protected.HandleFunc("/users/{uid:[0-9]+}", s.findUser).Methods("GET")
	protected.HandleFunc("/users/{uid:[0-9]+}", s.updateUser).Methods("PUT")
	protected.HandleFunc("/users/{uid:[0-9]+}", s.deleteUser).Methods("DELETE")

	protected.HandleFunc("/users/{uid:[0-9]+}/contacts", s.createContact).Methods("POST")
	protected.HandleFunc("/users/{uid:[0-9]+}/contacts", s.listContacts).Methods("GET")

	protected.HandleFunc("/contacts/{id:[0-9]+}", s.findContact).Methods("GET")
	protected.HandleFunc("/contacts/{id:[0-9]+}", s.updateContact).Methods("PUT")
	protected.HandleFunc("/contacts/{id:[0-9]+}", s.deleteContact).Methods("DELETE")

	protected.HandleFunc("/contacts/{id:[0-9]+}/phone-numbers", s.createPhoneNumber).Methods("POST")
	protected.HandleFunc("/contacts/{id:[0-9]+}/phone-numbers", s.listPhoneNumbers).Methods("GET")

	protected.HandleFunc("/phone-numbers/{id:[0-9]+}", s.findPhoneNumber).Methods("GET")
	protected.HandleFunc("/phone-numbers/{id:[0-9]+}", s.updatePhoneNumber).Methods("PUT")
	protected.HandleFunc("/phone-numbers/{id:[0-9]+}", s.deletePhoneNumber).Methods("DELETE")

	return router
}

// Start boots the rolodex server: config, datastore, optional backup job,
// router, and blocks until a shutdown signal arrives.
func Start(config *viper.Viper, devMode bool) {
	serverConfig := &shared.ServerConfig{}
	fatalOnError(config.Unmarshal(serverConfig))

	validate := validator.New()
	fatalOnError(RegisterValidators(validate))
	fatalOnError(validate.Struct(serverConfig))

	rootDir := configDirectory(devMode)
	dbFilePath := models.DbFilePath(rootDir)

	keyPair := loadKeyPair(serverConfig, devMode)

	var backupScheduler *backup.Scheduler
	if sqliteBackupEnabled(serverConfig) {
		gs, err := gstorage.NewGStorage(serverConfig.Google.ApplicationCredentials)
		fatalOnError(err)

		backupScheduler = backup.NewScheduler(gs, serverConfig.Google.Storage, dbFilePath)
		fatalOnError(utils.CreateDirIfNotExist(filepath.Dir(dbFilePath)))
		fatalOnError(backupScheduler.RestoreIfMissing())
	}

	ds, err := models.Connect(serverConfig.Sqlite.PassPhrase, rootDir)
	fatalOnError(err)

	if backupScheduler != nil {
		fatalOnError(backupScheduler.Start())
	}

	s := newServer(ds, keyPair, validate)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%v", serverConfig.Rolodex.Listener.Port),
		Handler: s.router(),
	}
	go serve(httpServer)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	cleanup(backupScheduler, httpServer, ds)
}

func loadKeyPair(serverConfig *shared.ServerConfig, devMode bool) *key.KeyPair {
	if serverConfig.Rolodex.PrivateKeyPem != "" {
		keyPair, err := key.NewKeyPairFromRSAPrivateKeyPem(serverConfig.Rolodex.PrivateKeyPem)
		fatalOnError(err)
		return keyPair
	}

	if !devMode {
		logg.Fatal("rolodex.privateKeyPem is required outside dev mode")
	}

	// Dev convenience: sign with an ephemeral key. Tokens die with the process.
	logg.Warn("no private key configured, generating an ephemeral dev key pair")
	keyPair, err := key.NewRandomKeyPair()
	fatalOnError(err)

	return keyPair
}

func sqliteBackupEnabled(serverConfig *shared.ServerConfig) bool {
	enabled, ok := serverConfig.Google.Storage.EnableSqliteBackupAndSync.(bool)
	return ok && enabled
}
