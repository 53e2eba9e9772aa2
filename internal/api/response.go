package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// internalErrorBody is a pre-rendered fallback so a serialization failure can
// never itself fail to serialize.
const internalErrorBody = `{"error":{"code":"core:internal_error","message":"An internal error occurred"}}`

// writeJSON marshals the payload up front instead of letting the renderer
// panic mid-response. On marshal failure the client gets a generic error and
// the cause goes to the log.
func writeJSON(c *gin.Context, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("api: serializing response: %v", err)
		c.Data(http.StatusInternalServerError, "application/json; charset=utf-8", []byte(internalErrorBody))
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}

// writeCallback answers a form post from a hidden iframe: the JSON payload is
// handed to the parent window through a script call instead of a plain body.
func writeCallback(c *gin.Context, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("api: serializing callback response: %v", err)
		body = []byte(internalErrorBody)
	}
	// "</" would terminate the script element early.
	escaped := strings.ReplaceAll(string(body), "</", `<\/`)
	html := `<!DOCTYPE html><html><head><meta charset="utf-8"></head><body><script type="text/javascript">(parent["callback_login"] || window["callback_login"])(` + escaped + `)</script></body></html>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
