package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FileDescriptor describes an uploaded file. The bytes live elsewhere.
type FileDescriptor struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	URL      string `json:"url,omitempty"`
}

type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindText
	KindList
	KindFile
)

// ResponseValue holds one answer. Text carries free text, a selected option or
// a number as string; List carries multi-choice selections; File carries an
// upload descriptor. At most one of them is meaningful, see Kind.
type ResponseValue struct {
	Text string
	List []string
	File *FileDescriptor
}

func Text(s string) ResponseValue {
	return ResponseValue{Text: s}
}

func List(items ...string) ResponseValue {
	return ResponseValue{List: append([]string{}, items...)}
}

func File(fd FileDescriptor) ResponseValue {
	return ResponseValue{File: &fd}
}

func (v ResponseValue) IsEmpty() bool {
	return v.Kind() == KindEmpty
}

func (v ResponseValue) Equal(o ResponseValue) bool {
	return bytes.Equal(v.mustJSON(), o.mustJSON())
}

func (v ResponseValue) Kind() ValueKind {
	switch {
	case v.File != nil:
		return KindFile
	case v.List != nil:
		if len(v.List) == 0 {
			return KindEmpty
		}
		return KindList
	case v.Text != "":
		return KindText
	}
	return KindEmpty
}

// Strings returns the value as a list of strings: the list itself, the text as
// a single element, or the file name.
func (v ResponseValue) Strings() []string {
	switch v.Kind() {
	case KindList:
		return v.List
	case KindText:
		return []string{v.Text}
	case KindFile:
		return []string{v.File.Name}
	}
	return nil
}

// Scalar returns the single string form of a non-list value.
func (v ResponseValue) Scalar() (string, bool) {
	switch v.Kind() {
	case KindText:
		return v.Text, true
	case KindFile:
		return v.File.Name, true
	}
	return "", false
}

// Display renders the value for human-readable exports.
func (v ResponseValue) Display() string {
	switch v.Kind() {
	case KindList:
		return strings.Join(v.List, ", ")
	case KindFile:
		return v.File.Name
	}
	return v.Text
}

func (v ResponseValue) Clone() ResponseValue {
	out := ResponseValue{Text: v.Text}
	if v.List != nil {
		out.List = append([]string{}, v.List...)
	}
	if v.File != nil {
		fd := *v.File
		out.File = &fd
	}
	return out
}

func (v ResponseValue) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindFile:
		return json.Marshal(v.File)
	case KindList:
		return json.Marshal(v.List)
	case KindEmpty:
		if v.List != nil {
			return []byte("[]"), nil
		}
	}
	return json.Marshal(v.Text)
}

func (v *ResponseValue) UnmarshalJSON(data []byte) error {
	*v = ResponseValue{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '"':
		return json.Unmarshal(trimmed, &v.Text)
	case '[':
		var items []any
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		v.List = make([]string, 0, len(items))
		for _, item := range items {
			v.List = append(v.List, scalarString(item))
		}
		return nil
	case '{':
		var fd FileDescriptor
		if err := json.Unmarshal(trimmed, &fd); err != nil {
			return err
		}
		v.File = &fd
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		v.Text = scalarString(b)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("unsupported response value: %w", err)
		}
		v.Text = n.String()
		return nil
	}
}

func (v ResponseValue) mustJSON() []byte {
	b, _ := v.MarshalJSON()
	return b
}

// Responses maps question ids to answers. A missing key or an empty value
// means the question is unanswered.
type Responses map[string]ResponseValue

// Answered reports whether the question has a non-empty value.
func (r Responses) Answered(questionID string) bool {
	v, ok := r[questionID]
	return ok && !v.IsEmpty()
}

func (r Responses) Clone() Responses {
	out := make(Responses, len(r))
	for k, v := range r {
		out[k] = v.Clone()
	}
	return out
}
