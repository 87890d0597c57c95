package summarize

import (
	"fmt"
	"strings"
)

// Placeholder marks where document text is substituted into a template.
const Placeholder = "{doc}"

// PromptTemplate is a named prompt with exactly one Placeholder.
// The zero value is unusable; build templates with NewPromptTemplate.
type PromptTemplate struct {
	name string
	text string
}

// NewPromptTemplate validates text and returns a template.
// It fails with ErrInvalidTemplate unless Placeholder occurs exactly once.
func NewPromptTemplate(name, text string) (PromptTemplate, error) {
	switch n := strings.Count(text, Placeholder); n {
	case 1:
		return PromptTemplate{name: name, text: text}, nil
	case 0:
		return PromptTemplate{}, fmt.Errorf("%w: %s template has no %s placeholder", ErrInvalidTemplate, name, Placeholder)
	default:
		return PromptTemplate{}, fmt.Errorf("%w: %s template has %d %s placeholders, want 1", ErrInvalidTemplate, name, n, Placeholder)
	}
}

// MustPromptTemplate is like NewPromptTemplate but panics on error.
// It is meant for package-level template literals.
func MustPromptTemplate(name, text string) PromptTemplate {
	t, err := NewPromptTemplate(name, text)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the template label used in logs and errors.
func (t PromptTemplate) Name() string { return t.name }

// Text returns the raw template text.
func (t PromptTemplate) Text() string { return t.text }

// IsZero reports whether t was never initialized.
func (t PromptTemplate) IsZero() bool { return t.text == "" }

// Render substitutes doc for the placeholder. doc is inserted verbatim and
// is not itself scanned for placeholders.
func (t PromptTemplate) Render(doc string) string {
	return strings.Replace(t.text, Placeholder, doc, 1)
}

// Default templates, in Brazilian Portuguese.
var (
	DefaultMapTemplate = MustPromptTemplate("map", `A seguir está um texto/documentos
{doc}
Com base neste texto/documento, utilize técnicas de extração e abstração para identificar e condensar as informações mais importantes do texto, foque em palavras-chave, termos técnicos e conceitos principais para garantir que o resumo seja informativo e preciso, evite incluir informações redundantes ou secundárias que não contribuam diretamente para a compreensão do conteúdo central.
Resposta:`)

	DefaultReduceTemplate = MustPromptTemplate("reduce", `Você é um assistente especializado em resumos de textos, focado em fornecer resumos sucintos e ricos em conteúdo. Sua prioridade é captar e condensar as informações mais relevantes e importantes, utilizando uma linguagem clara e objetiva.
Requisitos:
1. Resumo Sucinto: O resumo deve ser o mais curto possível em termos de número de caracteres, mantendo a concisão sem sacrificar a clareza.
2. Conteúdo Rico: O resumo deve conter definições e vocabulário dos tópicos principais abordados no texto original, garantindo que os pontos-chave sejam claramente entendidos.
A seguir está um conjunto de resumos:
{doc}
Pegue-os e transforme-os em um resumo final e consolidado dos temas principais.
Resposta:`)
)
