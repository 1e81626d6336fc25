package highlight

import "strings"

var displayNames = map[string]string{
	"js":         "JavaScript",
	"javascript": "JavaScript",
	"ts":         "TypeScript",
	"typescript": "TypeScript",
	"tsx":        "TSX",
	"jsx":        "JSX",
	"py":         "Python",
	"python":     "Python",
	"rb":         "Ruby",
	"ruby":       "Ruby",
	"go":         "Go",
	"rust":       "Rust",
	"rs":         "Rust",
	"java":       "Java",
	"cpp":        "C++",
	"c":          "C",
	"cs":         "C#",
	"csharp":     "C#",
	"php":        "PHP",
	"swift":      "Swift",
	"kotlin":     "Kotlin",
	"sql":        "SQL",
	"html":       "HTML",
	"css":        "CSS",
	"scss":       "SCSS",
	"sass":       "Sass",
	"json":       "JSON",
	"yaml":       "YAML",
	"yml":        "YAML",
	"xml":        "XML",
	"md":         "Markdown",
	"markdown":   "Markdown",
	"bash":       "Bash",
	"sh":         "Shell",
	"shell":      "Shell",
	"zsh":        "Zsh",
	"powershell": "PowerShell",
	"dockerfile": "Dockerfile",
	"docker":     "Docker",
	"graphql":    "GraphQL",
	"prisma":     "Prisma",
	"text":       "Plain Text",
	"mermaid":    "Mermaid",
	"d2":         "D2",
}

// DisplayName is the header label of a code block: the explicit title when
// present, then the known name of lang, then lang upper-cased.
func DisplayName(lang, title string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	if name, ok := displayNames[strings.ToLower(lang)]; ok {
		return name
	}
	return strings.ToUpper(lang)
}
