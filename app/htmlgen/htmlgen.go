// Package htmlgen renders the stored portfolio page templates. Templates use
// {{NAME}} placeholders plus {{#NAME}}...{{/NAME}} conditional blocks that
// are kept when the corresponding portfolio field is non-empty and dropped
// otherwise.
package htmlgen

import (
	"regexp"
	"strings"

	"github.com/tokenfolio/ms-go-portfolios/app/entity"
)

const fallbackHTML = `<!DOCTYPE html>
<html>
<head><title>{{TOKEN_NAME}}</title><style>{{CSS}}</style></head>
<body>
<h1>{{TOKEN_NAME}}</h1>
{{#TICKER}}<p class="ticker">{{TICKER}}</p>{{/TICKER}}
{{#SLOGAN}}<p class="slogan">{{SLOGAN}}</p>{{/SLOGAN}}
{{#DESCRIPTION}}<p>{{DESCRIPTION}}</p>{{/DESCRIPTION}}
</body>
</html>`

// FallbackTemplate is used when a portfolio references a template the store
// no longer carries.
func FallbackTemplate() *entity.Template {
	return &entity.Template{
		Name:         "fallback",
		DisplayName:  "Fallback",
		HTMLTemplate: fallbackHTML,
	}
}

var conditionalBlocks = []string{
	"LOGO_URL",
	"TICKER",
	"SLOGAN",
	"BANNER_URL",
	"DESCRIPTION",
	"CONTRACT_ADDRESS",
	"TWITTER_URL",
	"TELEGRAM_URL",
	"WEBSITE_URL",
}

func Render(portfolio *entity.Portfolio, template *entity.Template) string {
	if template == nil {
		template = FallbackTemplate()
	}

	html := template.HTMLTemplate
	values := map[string]string{
		"TOKEN_NAME":       portfolio.TokenName,
		"TICKER":           portfolio.Ticker,
		"CONTRACT_ADDRESS": portfolio.ContractAddress,
		"SLOGAN":           portfolio.Slogan,
		"DESCRIPTION":      portfolio.Description,
		"LOGO_URL":         portfolio.LogoURL,
		"BANNER_URL":       portfolio.BannerURL,
		"TWITTER_URL":      portfolio.TwitterURL,
		"TELEGRAM_URL":     portfolio.TelegramURL,
		"WEBSITE_URL":      portfolio.WebsiteURL,
		"CSS":              template.CSSTemplate,
	}

	for _, block := range conditionalBlocks {
		pattern := regexp.MustCompile(`\{\{#` + block + `\}\}([\s\S]*?)\{\{/` + block + `\}\}`)
		if strings.TrimSpace(values[block]) != "" {
			html = pattern.ReplaceAllString(html, "$1")
		} else {
			html = pattern.ReplaceAllString(html, "")
		}
	}

	for key, value := range values {
		html = strings.ReplaceAll(html, "{{"+key+"}}", value)
	}

	return html
}
