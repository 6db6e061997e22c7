// internal/view/uahelpers.go
//
// Template helpers keyed off the enriched request info, so markup can
// adapt to the visitor:
//
//	{{ browser .Request }} {{ browserVersion .Request }}
//	{{ os .Request }} – {{ device .Request }}
//	{{ if isBot .Request }}Robot!{{ end }}
package view

import (
	"html/template"

	"github.com/yanizio/propcost/internal/requestinfo"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"dict":           dict,
		"browser":        func(ri *requestinfo.RequestInfo) string { return ua(ri).Browser },
		"browserVersion": func(ri *requestinfo.RequestInfo) string { return ua(ri).Version },
		"os":             func(ri *requestinfo.RequestInfo) string { return ua(ri).OS },
		"device":         func(ri *requestinfo.RequestInfo) string { return ua(ri).Device },
		"isBot":          func(ri *requestinfo.RequestInfo) bool { return ua(ri).IsBot },
	}
}

// ua tolerates a nil RequestInfo (RenderToString has no request).
func ua(ri *requestinfo.RequestInfo) requestinfo.UA {
	if ri == nil {
		return requestinfo.UA{}
	}
	return ri.UA
}
