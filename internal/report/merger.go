package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/rpattn/reportql/internal/domain"
	"github.com/rpattn/reportql/internal/query"
)

// SpecAttribute is the reserved attribute carrying the serialized query
// specification on placeholder tables. It is stripped from the final
// markup.
const SpecAttribute = "data-config-consulta"

// Merger populates placeholder tables in report markup with query results.
// Placeholders are processed sequentially in document order; a failure in
// any one of them aborts the whole merge without partial output.
type Merger struct {
	validator *query.Validator
	compiler  *query.Compiler
	executor  *query.Executor
}

// NewMerger creates a merger over the validation/compilation/execution
// pipeline.
func NewMerger(validator *query.Validator, compiler *query.Compiler, executor *query.Executor) *Merger {
	return &Merger{validator: validator, compiler: compiler, executor: executor}
}

// Merge runs every placeholder's embedded specification through the
// pipeline and returns the populated markup. Zero-row results leave the
// placeholder table untouched apart from stripping the spec attribute.
func (m *Merger) Merge(ctx context.Context, fragment string) (string, error) {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return "", fmt.Errorf("parse report markup: %w", err)
	}

	var placeholders []*html.Node
	for _, node := range nodes {
		collectPlaceholders(node, &placeholders)
	}

	for _, table := range placeholders {
		raw, _ := attrValue(table, SpecAttribute)
		var spec domain.QuerySpec
		if err := json.Unmarshal([]byte(raw), &spec); err != nil {
			return "", fmt.Errorf("decode embedded query spec: %w", err)
		}

		resolved, err := m.validator.Validate(spec)
		if err != nil {
			return "", err
		}
		plan, err := m.compiler.Compile(resolved)
		if err != nil {
			return "", err
		}
		rows, err := m.executor.Execute(ctx, plan)
		if err != nil {
			return "", err
		}

		if len(rows) > 0 {
			fillTable(table, rows)
		}
		removeAttr(table, SpecAttribute)
	}

	return renderNodes(nodes)
}

// MergeIntoTemplate merges the fragment and appends the result to the base
// template's body.
func (m *Merger) MergeIntoTemplate(ctx context.Context, base, fragment string) (string, error) {
	merged, err := m.Merge(ctx, fragment)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(base))
	if err != nil {
		return "", fmt.Errorf("parse base template: %w", err)
	}
	body := findElement(doc, atom.Body)
	if body == nil {
		return "", fmt.Errorf("base template has no body element")
	}

	nodes, err := parseFragment(merged)
	if err != nil {
		return "", fmt.Errorf("reparse merged markup: %w", err)
	}
	for _, node := range nodes {
		body.AppendChild(node)
	}

	var out strings.Builder
	if err := html.Render(&out, doc); err != nil {
		return "", fmt.Errorf("render merged document: %w", err)
	}
	return out.String(), nil
}

// fillTable sets the header cells from the first row's labels (positionally;
// surplus cells stay untouched) and rebuilds the body with one row per
// result, preserving the prototype row's inline style.
func fillTable(table *html.Node, rows []domain.OutputRow) {
	labels := rows[0].Labels()

	if thead := findElement(table, atom.Thead); thead != nil {
		if tr := findElement(thead, atom.Tr); tr != nil {
			i := 0
			for th := tr.FirstChild; th != nil && i < len(labels); th = th.NextSibling {
				if th.Type != html.ElementNode || th.DataAtom != atom.Th {
					continue
				}
				setText(th, labels[i])
				i++
			}
		}
	}

	tbody := findElement(table, atom.Tbody)
	if tbody == nil {
		return
	}

	rowStyle := ""
	if proto := findElement(tbody, atom.Tr); proto != nil {
		rowStyle, _ = attrValue(proto, "style")
	}

	for tbody.FirstChild != nil {
		tbody.RemoveChild(tbody.FirstChild)
	}

	for _, row := range rows {
		tr := &html.Node{Type: html.ElementNode, DataAtom: atom.Tr, Data: "tr"}
		if rowStyle != "" {
			tr.Attr = append(tr.Attr, html.Attribute{Key: "style", Val: rowStyle})
		}
		for _, cell := range row {
			td := &html.Node{Type: html.ElementNode, DataAtom: atom.Td, Data: "td"}
			td.AppendChild(&html.Node{Type: html.TextNode, Data: cellText(cell.Value)})
			tr.AppendChild(td)
		}
		tbody.AppendChild(tr)
	}
}

// cellText renders a formatted value for HTML output; a typed absence
// becomes the "-" sentinel here and nowhere earlier.
func cellText(value any) string {
	if value == nil {
		return "-"
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func parseFragment(fragment string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	return html.ParseFragment(strings.NewReader(fragment), body)
}

func renderNodes(nodes []*html.Node) (string, error) {
	var out strings.Builder
	for _, node := range nodes {
		if err := html.Render(&out, node); err != nil {
			return "", fmt.Errorf("render merged markup: %w", err)
		}
	}
	return out.String(), nil
}

// collectPlaceholders appends, in document order, every element carrying
// the spec attribute.
func collectPlaceholders(node *html.Node, out *[]*html.Node) {
	if node.Type == html.ElementNode {
		if _, ok := attrValue(node, SpecAttribute); ok {
			*out = append(*out, node)
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectPlaceholders(child, out)
	}
}

func findElement(node *html.Node, a atom.Atom) *html.Node {
	if node.Type == html.ElementNode && node.DataAtom == a {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, a); found != nil {
			return found
		}
	}
	return nil
}

func attrValue(node *html.Node, key string) (string, bool) {
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

func removeAttr(node *html.Node, key string) {
	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		if attr.Key != key {
			kept = append(kept, attr)
		}
	}
	node.Attr = kept
}

func setText(node *html.Node, text string) {
	for node.FirstChild != nil {
		node.RemoveChild(node.FirstChild)
	}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
