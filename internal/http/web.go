package http

import (
	"embed"
	"html/template"
	"math"
	"strconv"
)

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

var templates = template.Must(
	template.New("").
		Funcs(template.FuncMap{
			"formatBytes": formatBytes,
			"shortHash":   shortHash,
		}).
		ParseFS(webFS, "web/templates/*.html"),
)

func mustAsset(name string) []byte {
	data, err := webFS.ReadFile("web/static/" + name)
	if err != nil {
		panic(err)
	}
	return data
}

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// formatBytes renders sizes as "1.5 GB".
func formatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	v := math.Round(float64(n)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}

func shortHash(h string) string {
	if len(h) <= 8 {
		return h
	}
	return h[:8] + "..."
}
