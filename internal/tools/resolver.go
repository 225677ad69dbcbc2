package tools

import (
	"errors"
	"strings"
	"unicode"
)

// ErrNoCreateTool is returned when the catalog has no known task-creation tool.
var ErrNoCreateTool = errors.New("no task creation tool available")

var (
	ProjectKeywords  = []string{"project"}
	LabelKeywords    = []string{"label", "tag"}
	ListVerbs        = []string{"list", "find", "search", "get", "fetch", "retrieve", "show"}
	MutatingKeywords = []string{"add", "create", "update", "delete", "remove", "archive", "unarchive", "move", "rename", "edit", "complete", "close", "reopen"}
)

// CreateToolNames is the fixed preference order for task creation.
var CreateToolNames = []string{"create_task", "add-task", "add_task", "create-task", "add-tasks", "add_tasks"}

var keywordSuffixes = []string{"", "s", "es", "d", "ed", "ing"}

// Alias maps an abstract capability to a concrete tool. Names are checked
// first, in order; Match is the fallback predicate.
type Alias struct {
	Names        []string
	Match        func(Descriptor) bool
	Args         func() map[string]any
	ResponseKeys []string
}

// Invocation is a resolved tool plus the arguments and response keys to use
// when calling it.
type Invocation struct {
	Tool         Descriptor
	Args         map[string]any
	ResponseKeys []string
}

// CreateTool is the resolved task-creation tool. Bulk tools take a list of
// tasks and p1..p4 priorities.
type CreateTool struct {
	Name string
	Bulk bool
}

var ProjectAliases = []Alias{
	{
		Names:        []string{"find-projects", "find_projects", "get-projects", "get_projects", "list-projects", "list_projects", "get_all_projects"},
		Args:         limitArgs,
		ResponseKeys: []string{"projects", "results"},
	},
	{
		Match:        ListPredicate(ProjectKeywords),
		ResponseKeys: []string{"projects"},
	},
}

var LabelAliases = []Alias{
	{
		Names:        []string{"find-labels", "find_labels", "get-labels", "get_labels", "list-labels", "list_labels", "get_all_labels"},
		Args:         limitArgs,
		ResponseKeys: []string{"labels", "results"},
	},
	{
		Match:        ListPredicate(LabelKeywords),
		ResponseKeys: []string{"labels"},
	},
}

func limitArgs() map[string]any {
	return map[string]any{"limit": 100}
}

// Resolve returns the first descriptor matched by the first satisfied rule.
func Resolve(catalog []Descriptor, rules []Alias) (Invocation, bool) {
	for _, rule := range rules {
		tool, ok := matchRule(catalog, rule)
		if !ok {
			continue
		}
		inv := Invocation{Tool: tool, Args: map[string]any{}, ResponseKeys: rule.ResponseKeys}
		if rule.Args != nil {
			if args := rule.Args(); args != nil {
				inv.Args = args
			}
		}
		return inv, true
	}
	return Invocation{}, false
}

func matchRule(catalog []Descriptor, rule Alias) (Descriptor, bool) {
	for _, name := range rule.Names {
		for _, d := range catalog {
			if d.Name == name {
				return d, true
			}
		}
	}
	if rule.Match == nil {
		return Descriptor{}, false
	}
	for _, d := range catalog {
		if rule.Match(d) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ResolveCreateTool picks the creation tool by exact name only.
func ResolveCreateTool(catalog []Descriptor) (CreateTool, error) {
	for _, name := range CreateToolNames {
		for _, d := range catalog {
			if d.Name == name {
				return CreateTool{Name: name, Bulk: isBulkName(name)}, nil
			}
		}
	}
	return CreateTool{}, ErrNoCreateTool
}

func isBulkName(name string) bool {
	return name == "add-tasks" || name == "add_tasks"
}

// ListPredicate matches read-only listing tools for the given capability.
func ListPredicate(capability []string) func(Descriptor) bool {
	return func(d Descriptor) bool {
		tokens := Tokenize(d.Name + " " + d.Description)
		return containsAny(tokens, capability) &&
			containsAny(tokens, ListVerbs) &&
			!containsAny(tokens, MutatingKeywords)
	}
}

// Tokenize lower-cases text and splits it on anything that is not a letter or
// digit and on lower-to-upper case changes. Run-together words such as
// "listprojects" are split when they are made entirely of resolver keywords.
func Tokenize(text string) []string {
	var tokens []string
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		for _, word := range splitCamel(field) {
			word = strings.ToLower(word)
			if parts, ok := splitCompound(word); ok {
				tokens = append(tokens, parts...)
				continue
			}
			tokens = append(tokens, word)
		}
	}
	return tokens
}

func splitCamel(s string) []string {
	runes := []rune(s)
	var out []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev := runes[i-1]
		if unicode.IsUpper(runes[i]) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			out = append(out, string(runes[start:i]))
			start = i
		}
	}
	return append(out, string(runes[start:]))
}

// compoundWords are the words a run-together token may be built from.
var compoundWords = func() []string {
	words := []string{"all"}
	for _, set := range [][]string{ListVerbs, ProjectKeywords, LabelKeywords, MutatingKeywords} {
		words = append(words, set...)
	}
	return words
}()

// splitCompound breaks word into compoundWords (each with an optional
// keyword suffix). It reports false unless the whole word is covered by at
// least two parts.
func splitCompound(word string) ([]string, bool) {
	parts, ok := segment(word)
	if !ok || len(parts) < 2 {
		return nil, false
	}
	return parts, true
}

func segment(word string) ([]string, bool) {
	if word == "" {
		return nil, true
	}
	for _, kw := range compoundWords {
		if !strings.HasPrefix(word, kw) {
			continue
		}
		for _, suffix := range keywordSuffixes {
			head := kw + suffix
			if !strings.HasPrefix(word, head) {
				continue
			}
			if rest, ok := segment(word[len(head):]); ok {
				return append([]string{head}, rest...), true
			}
		}
	}
	return nil, false
}

func containsAny(tokens []string, keywords []string) bool {
	for _, kw := range keywords {
		for _, tok := range tokens {
			if matchesKeyword(tok, kw) {
				return true
			}
		}
	}
	return false
}

func matchesKeyword(token, keyword string) bool {
	if !strings.HasPrefix(token, keyword) {
		return false
	}
	rest := token[len(keyword):]
	for _, suffix := range keywordSuffixes {
		if rest == suffix {
			return true
		}
	}
	return false
}
