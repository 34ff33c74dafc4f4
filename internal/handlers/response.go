package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Dias221467/Language_Exchange/internal/apperror"
	"github.com/Dias221467/Language_Exchange/pkg/logger"
	"github.com/Dias221467/Language_Exchange/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

// writeError maps err to its status and writes {"message": ...}. Unexpected
// errors are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.Status(err)
	body := map[string]interface{}{"message": apperror.PublicMessage(err)}
	if fields := apperror.FieldsOf(err); len(fields) > 0 {
		body["missingFields"] = fields
	}

	entry := logger.Log.WithFields(logrus.Fields{
		"method":    r.Method,
		"path":      r.URL.Path,
		"requestID": w.Header().Get(middleware.RequestIDHeader),
	})
	if claims := middleware.GetUserFromContext(r.Context()); claims != nil {
		entry = entry.WithField("userID", claims.UserID)
	}
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("Unexpected error")
	} else {
		entry.WithField("reason", apperror.KindOf(err).String()).Debug(apperror.PublicMessage(err))
	}

	writeJSON(w, status, body)
}

// currentUserID returns the authenticated caller.
func currentUserID(r *http.Request) (primitive.ObjectID, error) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		return primitive.NilObjectID, apperror.Unauthorized("Unauthorized")
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, apperror.Unauthorized("Unauthorized - Invalid token")
	}
	return id, nil
}

// pathID parses the named path variable as an ObjectID.
func pathID(r *http.Request, name, label string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, apperror.Validation("Invalid " + label + " ID")
	}
	return id, nil
}
