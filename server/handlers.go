package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/gorilla/mux"
	"github.com/sgabriel/rolodex/server/auth"
	"github.com/sgabriel/rolodex/server/auth/key"
	"github.com/sgabriel/rolodex/server/models"
)

type ResponsePayload struct {
	Errors  []string       `json:"errors,omitempty"`
	Success bool           `json:"success"`
	Data    interface{}    `json:"data,omitempty"`
	Paging  *models.Paging `json:"paging,omitempty"`
}

func (s *Server) healthCheck(rw http.ResponseWriter, r *http.Request) {
	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: "rolodex is up"})
}

// ---------------------------------------------------------------------------------//
// Auth handlers
// --------------------------------------------------------------------------------//

func (s *Server) logIn(rw http.ResponseWriter, r *http.Request) {
	data := make(map[string]string)
	json.NewDecoder(r.Body).Decode(&data)

	user, err := s.ds.UserCredentials(data["name"])
	if err != nil || !auth.CheckPasswordHash(data["password"], user.Password) {
		writeResponse(rw, ResponsePayload{Errors: []string{"name/password is invalid"}}, http.StatusUnauthorized)
		return
	}

	claims := auth.RolodexTokenClaims{
		Name: user.Name,
		StandardClaims: jwt.StandardClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		},
	}

	token, err := auth.EncodeJWT(claims, s.keyPair)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]string{"token": token}})
}

func (s *Server) jwks(rw http.ResponseWriter, r *http.Request) {
	keyPairJWK, err := s.keyPair.JWK()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(key.ExportJWKAsJWKS(keyPairJWK))
}

// ---------------------------------------------------------------------------------//
// User handlers
// --------------------------------------------------------------------------------//

func (s *Server) createUser(rw http.ResponseWriter, r *http.Request) {
	user := models.User{}
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid JSON"}}, http.StatusBadRequest)
		return
	}

	if errs := s.validate.Struct(user); errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	if err := s.ds.CreateUser(&user); err != nil {
		writeError(rw, err)
		return
	}

	user.Password = ""
	writeResponse(rw, ResponsePayload{Success: true, Data: user}, http.StatusCreated)
}

func (s *Server) findUser(rw http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r), "uid")
	if err != nil {
		writeError(rw, err)
		return
	}

	user, err := s.ds.FindUserBy("id", id)
	if err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: user})
}

func (s *Server) updateUser(rw http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r), "uid")
	if err != nil {
		writeError(rw, err)
		return
	}

	patch := models.UserPatch{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid JSON"}}, http.StatusBadRequest)
		return
	}

	if errs := s.validate.Struct(patch); errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	if len(patch.Fields()) == 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"no values to be updated"}}, http.StatusBadRequest)
		return
	}

	if err := s.ds.UpdateUser(id, &patch); err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func (s *Server) deleteUser(rw http.ResponseWriter, r *http.Request) {
	id, err := pathID(mux.Vars(r), "uid")
	if err != nil {
		writeError(rw, err)
		return
	}

	if err := s.ds.DeleteUser(id); err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

// ---------------------------------------------------------------------------------//
// Contact handlers
// --------------------------------------------------------------------------------//

func (s *Server) createContact(rw http.ResponseWriter, r *http.Request) {
	principal, err := principalID(r)
	if err != nil {
		writeError(rw, err)
		return
	}

	contact := models.Contact{}
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid JSON"}}, http.StatusBadRequest)
		return
	}

	if errs := s.validate.Struct(contact); errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	if err := s.ds.CreateContact(principal, &contact); err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: contact}, http.StatusCreated)
}

func (s *Server) listContacts(rw http.ResponseWriter, r *http.Request) {
	principal, err := principalID(r)
	if err != nil {
		writeError(rw, err)
		return
	}

	page, limit := pageParams(r)
	contacts, paging, err := s.ds.ContactsByUser(principal, page, limit)
	if err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: contacts, Paging: paging})
}

func (s *Server) findContact(rw http.ResponseWriter, r *http.Request) {
	principal, err := principalID(r)
	if err != nil {
		writeError(rw, err)
		return
	}

	id, err := pathID(mux.Vars(r), "id")
	if err != nil {
		writeError(rw, err)
		return
	}

	contact, err := s.ds.ContactByID(principal, id)
	if err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: contact})
}

func (s *Server) updateContact(rw http.ResponseWriter, r *http.Request) {
	principal, err := principalID(r)
	if err != nil {
		writeError(rw, err)
		return
	}

	id, err := pathID(mux.Vars(r), "id")
	if err != nil {
		writeError(rw, err)
		return
	}

	patch := models.ContactPatch{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid JSON"}}, http.StatusBadRequest)
		return
	}

	if errs := s.validate.Struct(patch); errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	if len(patch.Fields()) == 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"no values to be updated"}}, http.StatusBadRequest)
		return
	}

	contact, err := s.ds.UpdateContact(principal, id, &patch)
	if err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: contact})
}

func (s *Server) deleteContact(rw http.ResponseWriter, r *http.Request) {
	principal, err := principalID(r)
	if err != nil {
		writeError(rw, err)
		return
	}

	id, err := pathID(mux.Vars(r), "id")
	if err != nil {
		writeError(rw, err)
		return
	}

	if err := s.ds.DeleteContact(principal, id); err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

// ---------------------------------------------------------------------------------//
// Phone number handlers
// --------------------------------------------------------------------------------//

func (s *Server) createPhoneNumber(rw http.ResponseWriter, r *http.Request) {
	principal, err := principalID(r)
	if err != nil {
		writeError(rw, err)
		return
	}

	contactID, err := pathID(mux.Vars(r), "id")
	if err != nil {
		writeError(rw, err)
		return
	}

	phoneNumber := models.PhoneNumber{}
	if err := json.NewDecoder(r.Body).Decode(&phoneNumber); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid JSON"}}, http.StatusBadRequest)
		return
	}

	if errs := s.validate.Struct(phoneNumber); errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	if err := s.ds.CreatePhoneNumber(principal, contactID, &phoneNumber); err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: phoneNumber}, http.StatusCreated)
}

func (s *Server) listPhoneNumbers(rw http.ResponseWriter, r *http.Request) {
	principal, err := principalID(r)
	if err != nil {
		writeError(rw, err)
		return
	}

	contactID, err := pathID(mux.Vars(r), "id")
	if err != nil {
		writeError(rw, err)
		return
	}

	phoneNumbers, err := s.ds.PhoneNumbersByContact(principal, contactID)
	if err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: phoneNumbers})
}

func (s *Server) findPhoneNumber(rw http.ResponseWriter, r *http.Request) {
	principal, err := principalID(r)
	if err != nil {
		writeError(rw, err)
		return
	}

	id, err := pathID(mux.Vars(r), "id")
	if err != nil {
		writeError(rw, err)
		return
	}

	phoneNumber, err := s.ds.PhoneNumberByID(principal, id)
	if err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: phoneNumber})
}

func (s *Server) updatePhoneNumber(rw http.ResponseWriter, r *http.Request) {
	principal, err := principalID(r)
	if err != nil {
		writeError(rw, err)
		return
	}

	id, err := pathID(mux.Vars(r), "id")
	if err != nil {
		writeError(rw, err)
		return
	}

	patch := models.PhoneNumberPatch{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid JSON"}}, http.StatusBadRequest)
		return
	}

	if errs := s.validate.Struct(patch); errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	if len(patch.Fields()) == 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"no values to be updated"}}, http.StatusBadRequest)
		return
	}

	phoneNumber, err := s.ds.UpdatePhoneNumber(principal, id, &patch)
	if err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: phoneNumber})
}

func (s *Server) deletePhoneNumber(rw http.ResponseWriter, r *http.Request) {
	principal, err := principalID(r)
	if err != nil {
		writeError(rw, err)
		return
	}

	id, err := pathID(mux.Vars(r), "id")
	if err != nil {
		writeError(rw, err)
		return
	}

	if err := s.ds.DeletePhoneNumber(principal, id); err != nil {
		writeError(rw, err)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}
