package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func ParamID(c *gin.Context, name string) (int64, bool) {
	v := c.Param(name)
	if v == "" {
		RespondError(c, name+" é obrigatório", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, name+" inválido", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// FlexID aceita id numérico ou string ("12") no JSON; o n8n manda dos dois jeitos.
type FlexID int64

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("id inválido: %q", s)
		}
		*f = FlexID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n)
	return nil
}

func queryInt(c *gin.Context, key string, def int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// parseISOTime aceita RFC3339 (com ou sem fração) e "2006-01-02T15:04" sem fuso.
func parseISOTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("data inválida: %q", v)
}

// likePattern monta o padrão de busca em minúsculas para LIKE.
func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}

// folga para os cabeçalhos e boundaries do multipart além do arquivo em si
const multipartOverhead = 1 << 20

// formFileLimited lê o campo de arquivo com o corpo limitado a maxBytes (mais a folga do multipart).
// Responde 413 quando passa do limite e 400 quando o campo não veio.
func formFileLimited(c *gin.Context, field string, maxBytes int64) (*multipart.FileHeader, bool) {
	tooLarge := fmt.Sprintf("arquivo maior que %dMB", maxBytes>>20)
	if c.Request.ContentLength > maxBytes+multipartOverhead {
		RespondError(c, tooLarge, http.StatusRequestEntityTooLarge)
		return nil, false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fh, err := c.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RespondError(c, tooLarge, http.StatusRequestEntityTooLarge)
			return nil, false
		}
		RespondError(c, "arquivo é obrigatório", http.StatusBadRequest)
		return nil, false
	}
	if fh.Size > maxBytes {
		RespondError(c, tooLarge, http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return fh, true
}
