package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID - идентификатор пользователя или заказа.
// Разные эндпоинты отдают id то числом, то строкой, поэтому значение
// хранится в нормализованном строковом виде: 5, "5" и "05" равны.
// Пустая строка - id не задан.
type ID string

func NewID(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// NormalizeID приводит строковое представление id к каноническому.
func NormalizeID(s string) ID {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NewID(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return NewID(int64(f))
	}
	return ID(s)
}

func (id ID) IsSet() bool {
	return id != ""
}

// Equal сравнивает два заданных id. Незаданный id не равен ничему.
func (id ID) Equal(other ID) bool {
	return id.IsSet() && NormalizeID(string(id)) == NormalizeID(string(other))
}

func (id ID) String() string {
	return string(id)
}

func (id ID) Int64() (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*id = ""
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("id: %w", err)
	}

	switch v := raw.(type) {
	case json.Number:
		*id = NormalizeID(v.String())
	case string:
		*id = NormalizeID(v)
	default:
		return fmt.Errorf("id: unexpected JSON value %s", string(b))
	}
	return nil
}

// MarshalJSON отдает числовой id числом, остальные - строкой.
func (id ID) MarshalJSON() ([]byte, error) {
	if !id.IsSet() {
		return []byte("null"), nil
	}
	if _, err := id.Int64(); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}
