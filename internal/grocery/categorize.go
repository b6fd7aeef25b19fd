package grocery

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Categorize returns the grocery category for the given item name.
// Matching ignores case and accents: exact match first, then substring match.
// Falls back to "Other" if no match is found.
func Categorize(itemName string) string {
	name := fold(itemName)
	if name == "" {
		return "Other"
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return "Other"
}

// fold lowercases s and strips diacritics, so "Feijão" and "feijao" agree.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

var exactMatch = map[string]string{
	// Produce
	"alface": "Produce", "tomate": "Produce", "cebola": "Produce", "alho": "Produce",
	"batata": "Produce", "cenoura": "Produce", "banana": "Produce", "maca": "Produce",
	"laranja": "Produce", "limao": "Produce", "mamao": "Produce", "abacate": "Produce",
	"apple": "Produce", "lettuce": "Produce", "onion": "Produce", "potato": "Produce",

	// Dairy
	"leite": "Dairy", "queijo": "Dairy", "manteiga": "Dairy", "iogurte": "Dairy",
	"requeijao": "Dairy", "milk": "Dairy", "cheese": "Dairy", "butter": "Dairy",

	// Meat & Seafood
	"frango": "Meat & Seafood", "carne": "Meat & Seafood", "peixe": "Meat & Seafood",
	"linguica": "Meat & Seafood", "presunto": "Meat & Seafood", "chicken": "Meat & Seafood",

	// Bakery
	"pao": "Bakery", "bolo": "Bakery", "bread": "Bakery",

	// Pantry
	"arroz": "Pantry", "feijao": "Pantry", "acucar": "Pantry", "sal": "Pantry",
	"farinha": "Pantry", "macarrao": "Pantry", "oleo": "Pantry", "azeite": "Pantry",
	"cafe": "Pantry", "ovos": "Pantry", "ovo": "Pantry", "rice": "Pantry", "sugar": "Pantry",

	// Frozen
	"sorvete": "Frozen", "ice cream": "Frozen",

	// Beverages
	"agua": "Beverages", "suco": "Beverages", "refrigerante": "Beverages",
	"cerveja": "Beverages", "vinho": "Beverages", "water": "Beverages",

	// Snacks
	"biscoito": "Snacks", "bolacha": "Snacks", "chocolate": "Snacks", "chips": "Snacks",

	// Household
	"detergente": "Household", "sabao em po": "Household", "amaciante": "Household",
	"papel higienico": "Household", "esponja": "Household", "desinfetante": "Household",

	// Personal Care
	"sabonete": "Personal Care", "shampoo": "Personal Care", "condicionador": "Personal Care",
	"pasta de dente": "Personal Care", "desodorante": "Personal Care",
}

type substringEntry struct {
	keyword  string
	category string
}

// Ordered with longer/more-specific keywords first for deterministic priority.
var substringMatches = []substringEntry{
	{"leite condensado", "Pantry"},
	{"creme de leite", "Dairy"},
	{"papel higienico", "Household"},
	{"papel toalha", "Household"},
	{"pasta de dente", "Personal Care"},
	{"pao de queijo", "Frozen"},
	{"congelad", "Frozen"},
	{"sorvete", "Frozen"},
	{"refrigerante", "Beverages"},
	{"cerveja", "Beverages"},
	{"suco", "Beverages"},
	{"agua", "Beverages"},
	{"iogurte", "Dairy"},
	{"queijo", "Dairy"},
	{"leite", "Dairy"},
	{"frango", "Meat & Seafood"},
	{"carne", "Meat & Seafood"},
	{"peixe", "Meat & Seafood"},
	{"camarao", "Meat & Seafood"},
	{"chicken", "Meat & Seafood"},
	{"pao", "Bakery"},
	{"bread", "Bakery"},
	{"biscoito", "Snacks"},
	{"bolacha", "Snacks"},
	{"chocolate", "Snacks"},
	{"arroz", "Pantry"},
	{"feijao", "Pantry"},
	{"macarrao", "Pantry"},
	{"farinha", "Pantry"},
	{"molho", "Pantry"},
	{"cafe", "Pantry"},
	{"detergente", "Household"},
	{"sabao", "Household"},
	{"sabonete", "Personal Care"},
	{"shampoo", "Personal Care"},
	{"tomate", "Produce"},
	{"batata", "Produce"},
	{"cebola", "Produce"},
	{"fruta", "Produce"},
	{"verdura", "Produce"},
}
