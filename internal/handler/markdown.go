package handler

import (
	"bytes"
	"log"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

func renderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes())), nil
}

// noteHTML 将打卡备注渲染为安全 HTML，渲染失败时退回转义后的原文
func noteHTML(note string) string {
	if strings.TrimSpace(note) == "" {
		return ""
	}

	rendered, err := renderMarkdown(note)
	if err != nil {
		log.Printf("[habit] render note failed: %v", err)
		return sanitizer.Sanitize(note)
	}
	return rendered
}
