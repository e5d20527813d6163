// Package multivalue decodes the loosely encoded multi-valued fields found in
// legacy rows and query strings. A value may be a JSON array, a
// comma-separated list or a single scalar.
package multivalue

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Strings decodes raw into trimmed, non-empty strings.
//
// Behavior:
//   - "" and "null" yield nil
//   - a JSON array yields its elements, nested values as raw JSON
//   - a JSON string yields its unquoted value
//   - anything else is split on commas
func Strings(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}

	if gjson.Valid(raw) {
		res := gjson.Parse(raw)
		switch {
		case res.IsArray():
			var out []string
			res.ForEach(func(_, v gjson.Result) bool {
				if s := strings.TrimSpace(elementString(v)); s != "" {
					out = append(out, s)
				}
				return true
			})
			return out
		case res.Type == gjson.String:
			return Strings(res.String())
		case res.Type == gjson.Null:
			return nil
		}
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func elementString(v gjson.Result) string {
	if v.IsArray() || v.IsObject() {
		return v.Raw
	}
	return v.String()
}

// IDs decodes raw into positive integer IDs, dropping anything that is not
// one and removing duplicates while keeping first-seen order.
func IDs(raw string) []int64 {
	return uniqueIDs(Strings(raw))
}

// IDsFromValues decodes each form value with IDs and concatenates the results.
// It accepts both repeated parameters and a single encoded parameter.
func IDsFromValues(values []string) []int64 {
	var all []string
	for _, v := range values {
		all = append(all, Strings(v)...)
	}
	return uniqueIDs(all)
}

func uniqueIDs(parts []string) []int64 {
	seen := make(map[int64]bool, len(parts))
	var out []int64
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// File is one entry of a legacy file list.
type File struct {
	Name string
	Path string
	Size int64
}

// Files decodes a legacy file column. Entries may be objects with
// originalname/filename/name, path and size keys, or bare path strings.
func Files(raw string) []File {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}

	if !gjson.Valid(raw) {
		var out []File
		for _, p := range Strings(raw) {
			out = append(out, fileFromPath(p))
		}
		return out
	}

	res := gjson.Parse(raw)
	if res.IsObject() {
		if f, ok := fileFromObject(res); ok {
			return []File{f}
		}
		return nil
	}
	if !res.IsArray() {
		var out []File
		for _, p := range Strings(raw) {
			out = append(out, fileFromPath(p))
		}
		return out
	}

	var out []File
	res.ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() {
			if f, ok := fileFromObject(v); ok {
				out = append(out, f)
			}
			return true
		}
		if p := strings.TrimSpace(v.String()); p != "" {
			out = append(out, fileFromPath(p))
		}
		return true
	})
	return out
}

func fileFromObject(v gjson.Result) (File, bool) {
	path := strings.TrimSpace(v.Get("path").String())
	if path == "" {
		return File{}, false
	}
	f := fileFromPath(path)
	for _, key := range []string{"originalname", "filename", "name"} {
		if n := strings.TrimSpace(v.Get(key).String()); n != "" {
			f.Name = n
			break
		}
	}
	f.Size = v.Get("size").Int()
	return f, true
}

func fileFromPath(p string) File {
	p = strings.ReplaceAll(p, "\\", "/")
	name := p
	if i := strings.LastIndex(p, "/"); i >= 0 {
		name = p[i+1:]
	}
	return File{Name: name, Path: p}
}
