package mailer

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// ButtonStyle is the inline style of call-to-action links. Mail clients
// ignore most stylesheets, so it is applied per element.
const ButtonStyle = "display:inline-block;padding:12px 24px;background:#111827;color:#ffffff;" +
	"border-radius:6px;text-decoration:none;font-weight:600"

var buttonTitle = []byte("button")

// buttonTransformer turns [label](url "button") links into styled buttons.
type buttonTransformer struct{}

func (buttonTransformer) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok || !bytes.Equal(link.Title, buttonTitle) {
			return ast.WalkContinue, nil
		}
		link.Title = nil
		link.SetAttributeString("class", []byte("button"))
		link.SetAttributeString("style", []byte(ButtonStyle))
		return ast.WalkSkipChildren, nil
	})
}
