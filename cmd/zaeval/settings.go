// Console settings resolution: field names are matched by unambiguous
// prefix via github.com/beevik/prefixtree/v2, so "set case off" and
// "set cpu Z180" both resolve without typing the full field name.
package main

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/prefixtree/v2"
	"github.com/mkern/zasm/internal/style"
)

type settings struct {
	Style         string `doc:"source dialect: MA, M80, PASMO, ZASM"`
	CPUType       string `doc:"target CPU: Z80, Z180, 8080"`
	CaseSensitive bool   `doc:"label name case sensitivity"`
	PC            int    `doc:"fake program counter used by the '$' token"`

	caseTouched bool
}

func newSettings() *settings {
	return &settings{
		Style:         style.MA.String(),
		CPUType:       style.Z80.String(),
		CaseSensitive: style.MA.CaseSensitiveDefault(),
		PC:            0,
	}
}

// caseSensitiveOverride reports the effective case policy: the console
// doesn't distinguish "explicitly set" from "dialect default" the way a
// richer config layer might, so a dialect switch simply reapplies the new
// dialect's default unless the user has already issued a "set case" this
// session (tracked via caseTouched).
func (s *settings) caseSensitiveOverride(d style.Dialect) bool {
	if !s.caseTouched {
		s.CaseSensitive = d.CaseSensitiveDefault()
	}
	return s.CaseSensitive
}

type settingsField struct {
	name  string
	index int
	kind  reflect.Kind
	doc   string
}

var (
	settingsTree   = prefixtree.New[*settingsField]()
	settingsFields []settingsField
)

func init() {
	t := reflect.TypeOf(settings{})
	settingsFields = make([]settingsField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		doc, _ := f.Tag.Lookup("doc")
		sf := settingsField{name: f.Name, index: i, kind: f.Type.Kind(), doc: doc}
		settingsFields = append(settingsFields, sf)
		settingsTree.Add(strings.ToLower(f.Name), &settingsFields[len(settingsFields)-1])
	}
}

func (s *settings) Display(w io.Writer) {
	v := reflect.ValueOf(s).Elem()
	for _, f := range settingsFields {
		fv := v.Field(f.index)
		fmt.Fprintf(w, "    %-14s %-8v (%s)\n", f.name, fv.Interface(), f.doc)
	}
}

func (s *settings) Kind(key string) reflect.Kind {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return reflect.Invalid
	}
	return f.kind
}

func (s *settings) Set(key, value string) error {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return err
	}

	v := reflect.ValueOf(s).Elem().Field(f.index)
	switch f.kind {
	case reflect.String:
		v.SetString(strings.ToUpper(value))
	case reflect.Bool:
		b, err := stringToBool(value)
		if err != nil {
			return err
		}
		v.SetBool(b)
		if f.name == "CaseSensitive" {
			s.caseTouched = true
		}
	case reflect.Int:
		n, err := parseIntSetting(value)
		if err != nil {
			return err
		}
		v.SetInt(int64(n))
	default:
		return errors.New("unsupported setting type")
	}
	return nil
}

func stringToBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "0", "false", "off":
		return false, nil
	case "1", "true", "on":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", s)
	}
}

func parseIntSetting(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(strings.TrimPrefix(s, "$"), "%d", &n)
	return n, err
}
