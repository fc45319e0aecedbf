package handler

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/meta-insights-proxy/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes limita o corpo aceito pelos endpoints POST
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.ForContext(r.Context()).WithError(err).Error("Erro ao escrever resposta")
	}
}
