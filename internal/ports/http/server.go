package http

import (
	"net/http"

	"vault-sentinel/internal/app"
	"vault-sentinel/internal/config"
	"vault-sentinel/internal/ports/http/middleware/auth"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type server struct {
	app        *app.App
	httpServer *http.Server
	addr       string
	logger     *zap.Logger
	validator  auth.TokenValidator
}

func (ser server) badRequest(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusBadRequest)
	if _, err := w.Write([]byte(message)); err != nil {
		ser.logger.Error("failed to write a bad request error message: " + err.Error())
	}

	ser.logger.Warn(message)
}

func (ser server) serverError(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusInternalServerError)
	if _, err := w.Write([]byte(message)); err != nil {
		ser.logger.Error("failed to write a server error message: " + err.Error())
	}

	ser.logger.Error(message)
}

func (ser server) registerHandlers(router *mux.Router) {

	router.HandleFunc("/health", healthcheck)

	router.HandleFunc("/api/proposals", ser.postProposal).Methods(http.MethodPost)
	router.HandleFunc("/api/agent/propose", ser.postAgentPropose).Methods(http.MethodPost)
	router.HandleFunc("/api/records/{vault}", ser.getRecords).Methods(http.MethodGet)

	router.Handle("/api/policies/{vault}",
		ser.validator.ValidateGetOwner(http.HandlerFunc(ser.putPolicy))).Methods(http.MethodPut)
	router.HandleFunc("/api/policies/{vault}", ser.getPolicyHistory).Methods(http.MethodGet)

	router.Handle("/api/admin/pause",
		ser.validator.ValidateGetOwner(http.HandlerFunc(ser.postPause))).Methods(http.MethodPost)
	router.Handle("/api/admin/unpause",
		ser.validator.ValidateGetOwner(http.HandlerFunc(ser.postUnpause))).Methods(http.MethodPost)
}

func healthcheck(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("all good here"))
}

func NewServer(logger *zap.Logger, a *app.App, address string) server {
	validator := auth.NewTokenValidator(logger, auth.JwtTokenParams{
		Issuer:   config.GetAuthIssuer(),
		Audience: config.GetAuthAudience(),
	}, config.GetAuthDisabled())

	return server{
		app:       a,
		addr:      address,
		logger:    logger,
		validator: validator,
	}
}

func (ser server) Run() error {
	router := mux.NewRouter()
	ser.registerHandlers(router)

	c := cors.New(cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowCredentials: true,
		Debug:            false,
	})
	handler := c.Handler(router)
	ser.httpServer = &http.Server{
		Handler: handler,
		Addr:    ser.addr,
	}

	return ser.httpServer.ListenAndServe()
}
