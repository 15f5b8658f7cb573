package render

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dbkchain/bridge-service/logging"
)

// JSON encodes res into the response body. The result is indented when the
// request carries ?pretty=true.
func JSON(w http.ResponseWriter, r *http.Request, status int, res interface{}) {
	var blob []byte
	var err error
	if pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty")); pretty {
		blob, err = json.MarshalIndent(res, "", "  ")
	} else {
		blob, err = json.Marshal(res)
	}
	if err != nil {
		Error(w, r, fmt.Errorf("can't marshal json response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	blob = append(blob, '\n')
	if _, err := w.Write(blob); err != nil {
		logging.LoggerFromContext(r.Context()).WithError(err).Error("can't write json response")
	}
}

func Error(w http.ResponseWriter, r *http.Request, err error) {
	logging.LoggerFromContext(r.Context()).WithError(err).Error("request handling failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
