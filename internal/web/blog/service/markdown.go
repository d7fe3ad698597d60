package service

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"

	"github.com/Laisky/laisky-portfolio/internal/web/blog/model"
)

var (
	headingRegexp = regexp.MustCompile(`<(h[23])[^>]*>([^<]+)</h[23]>`)
	validHTMLID   = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)
)

// RenderMarkdown renders post content and collects the h2/h3 outline.
// Every h2 and h3 gets a stable id the outline links to.
func RenderMarkdown(md string) (cnt string, menu []model.MenuItem) {
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	cnt = string(markdown.ToHTML([]byte(md), nil, renderer))

	used := map[string]int{}
	cnt = headingRegexp.ReplaceAllStringFunc(cnt, func(tag string) string {
		m := headingRegexp.FindStringSubmatch(tag)
		level, title := strings.ToLower(m[1]), m[2]

		id := convertTitleID(title)
		if n := used[id]; n > 0 {
			used[id]++
			id += "-" + strconv.Itoa(n+1)
		} else {
			used[id] = 1
		}

		item := model.MenuItem{ID: id, Title: title}
		switch {
		case level == "h2" || len(menu) == 0:
			menu = append(menu, item)
		default:
			parent := &menu[len(menu)-1]
			parent.Children = append(parent.Children, item)
		}

		return `<` + level + ` id="` + id + `">` + title + `</` + level + `>`
	})

	return cnt, menu
}

// convertTitleID convert title to valid html id
//
// https://www.w3.org/TR/REC-html40/types.html#:~:text=ID%20and%20NAME%20tokens%20must,periods%20(%22.%22).
func convertTitleID(title string) string {
	return "header-" + validHTMLID.ReplaceAllString(url.QueryEscape(title), "")
}
