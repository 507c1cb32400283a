package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON guarda um documento JSON numa coluna text.
// Postgres devolve []byte e o sqlite devolve string, então Scan aceita os dois.
type JSON json.RawMessage

func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSON(v)
	default:
		return errors.New("models.JSON: tipo não suportado")
	}
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return errors.New("models.JSON: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[:0], data...)
	return nil
}

// IsNull vale para coluna vazia ou literal null.
func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Decode faz unmarshal do documento em out. Documento vazio não é erro.
func (j JSON) Decode(out interface{}) error {
	if j.IsNull() {
		return nil
	}
	return json.Unmarshal(j, out)
}

// ToJSON serializa v; em caso de erro devolve nil (coluna NULL).
func ToJSON(v interface{}) JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return JSON(b)
}

// Map decodifica o documento como objeto; nunca devolve nil.
func (j JSON) Map() map[string]interface{} {
	out := map[string]interface{}{}
	_ = j.Decode(&out)
	if out == nil {
		out = map[string]interface{}{}
	}
	return out
}

// Strings decodifica o documento como lista de strings.
func (j JSON) Strings() []string {
	var out []string
	_ = j.Decode(&out)
	if out == nil {
		out = []string{}
	}
	return out
}
