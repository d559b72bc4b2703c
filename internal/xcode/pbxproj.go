// Package xcode edits generated Xcode projects: build settings in
// project.pbxproj, property lists and entitlements.
package xcode

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/moasq/appcenter-postbuild/internal/patch"
)

// DefaultTarget is the app target Unity generates.
const DefaultTarget = "Unity-iPhone"

var (
	buildSettingsOpen = regexp.MustCompile(`buildSettings\s*=\s*\{`)
	objectHeader      = regexp.MustCompile(`(?m)^\s*([0-9A-Fa-f]{24})(?:\s*/\*.*?\*/)?\s*=\s*\{`)
	objectID          = regexp.MustCompile(`[0-9A-Fa-f]{24}`)
	bareValue         = regexp.MustCompile(`^[A-Za-z0-9_./]+$`)
)

// ProjectPath returns the pbxproj path inside a generated iOS build.
func ProjectPath(outputPath string) string {
	return filepath.Join(outputPath, DefaultTarget+".xcodeproj", "project.pbxproj")
}

// Project is a textual project.pbxproj editor. Only buildSettings
// dictionaries are touched; the rest of the file is kept verbatim.
type Project struct {
	path    string
	target  string
	text    string
	changed bool
}

// OpenProject loads the Unity-iPhone project under outputPath.
func OpenProject(outputPath string) (*Project, error) {
	return OpenProjectFile(ProjectPath(outputPath), DefaultTarget)
}

// OpenProjectFile loads the pbxproj at path. Edits apply to the build
// configurations of target, or to every configuration when the target
// is not declared.
func OpenProjectFile(path, target string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, patch.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &Project{path: path, target: target, text: string(data)}, nil
}

// Path returns the pbxproj file path.
func (p *Project) Path() string { return p.path }

// String returns the current project text.
func (p *Project) String() string { return p.text }

// AddBuildProperty adds value to name. A missing setting is created, a
// scalar with a different value is promoted to a list, and a list gets
// value appended unless already present.
func (p *Project) AddBuildProperty(name, value string) {
	p.editBlocks(func(body string) string {
		s, ok := findSetting(body, name)
		if !ok {
			return insertSetting(body, renderSetting(blockIndent(body), name, []string{value}, false))
		}
		for _, v := range s.values {
			if v == value {
				return body
			}
		}
		values := append(append([]string{}, s.values...), value)
		return body[:s.start] + renderSetting(s.indent, name, values, true) + body[s.end:]
	})
}

// SetBuildProperty replaces name with a single value.
func (p *Project) SetBuildProperty(name, value string) {
	p.editBlocks(func(body string) string {
		s, ok := findSetting(body, name)
		if !ok {
			return insertSetting(body, renderSetting(blockIndent(body), name, []string{value}, false))
		}
		if !s.list && len(s.values) == 1 && s.values[0] == value {
			return body
		}
		return body[:s.start] + renderSetting(s.indent, name, []string{value}, false) + body[s.end:]
	})
}

// BuildProperty returns the values of name in each edited configuration.
func (p *Project) BuildProperty(name string) [][]string {
	var out [][]string
	opens := p.blockOpens()
	sort.Ints(opens)
	for _, open := range opens {
		end := matchBrace(p.text, open)
		if end < 0 {
			continue
		}
		if s, ok := findSetting(p.text[open:end], name); ok {
			out = append(out, s.values)
		} else {
			out = append(out, nil)
		}
	}
	return out
}

// Save writes the project when it changed.
func (p *Project) Save() error {
	if !p.changed {
		return nil
	}
	if err := patch.WriteFileAtomic(p.path, []byte(p.text)); err != nil {
		return err
	}
	p.changed = false
	return nil
}

// editBlocks applies fn to each targeted buildSettings body, last first
// so earlier offsets stay valid.
func (p *Project) editBlocks(fn func(body string) string) {
	opens := p.blockOpens()
	sort.Sort(sort.Reverse(sort.IntSlice(opens)))
	for _, open := range opens {
		end := matchBrace(p.text, open)
		if end < 0 {
			continue
		}
		body := p.text[open:end]
		if updated := fn(body); updated != body {
			p.text = p.text[:open] + updated + p.text[end:]
			p.changed = true
		}
	}
}

// blockOpens returns the offsets just past the opening brace of every
// buildSettings dictionary that belongs to the target.
func (p *Project) blockOpens() []int {
	if opens := p.targetBlockOpens(); len(opens) > 0 {
		return opens
	}
	var opens []int
	for _, loc := range buildSettingsOpen.FindAllStringIndex(p.text, -1) {
		opens = append(opens, loc[1])
	}
	return opens
}

type span struct{ open, end int }

func (p *Project) objects() map[string]span {
	objs := make(map[string]span)
	for _, m := range objectHeader.FindAllStringSubmatchIndex(p.text, -1) {
		end := matchBrace(p.text, m[1])
		if end < 0 {
			continue
		}
		objs[strings.ToUpper(p.text[m[2]:m[3]])] = span{open: m[1], end: end}
	}
	return objs
}

func (p *Project) targetBlockOpens() []int {
	if p.target == "" {
		return nil
	}
	objs := p.objects()
	nameRe := regexp.MustCompile(`(?m)\bname\s*=\s*"?` + regexp.QuoteMeta(p.target) + `"?\s*;`)
	listRe := regexp.MustCompile(`buildConfigurationList\s*=\s*([0-9A-Fa-f]{24})`)
	configsRe := regexp.MustCompile(`buildConfigurations\s*=\s*\(([^)]*)\)`)

	for _, obj := range objs {
		body := p.text[obj.open:obj.end]
		if !strings.Contains(body, "PBXNativeTarget") || !nameRe.MatchString(body) {
			continue
		}
		lm := listRe.FindStringSubmatch(body)
		if lm == nil {
			return nil
		}
		list, ok := objs[strings.ToUpper(lm[1])]
		if !ok {
			return nil
		}
		cm := configsRe.FindStringSubmatch(p.text[list.open:list.end])
		if cm == nil {
			return nil
		}
		var opens []int
		for _, id := range objectID.FindAllString(cm[1], -1) {
			cfg, ok := objs[strings.ToUpper(id)]
			if !ok {
				continue
			}
			if loc := buildSettingsOpen.FindStringIndex(p.text[cfg.open:cfg.end]); loc != nil {
				opens = append(opens, cfg.open+loc[1])
			}
		}
		return opens
	}
	return nil
}

type setting struct {
	start, end int
	indent     string
	values     []string
	list       bool
}

// findSetting locates `name = value;` or `name = ( ... );` in body.
func findSetting(body, name string) (setting, bool) {
	re := regexp.MustCompile(`(?m)^([ \t]*)"?` + regexp.QuoteMeta(name) + `"?[ \t]*=[ \t]*`)
	loc := re.FindStringSubmatchIndex(body)
	if loc == nil {
		return setting{}, false
	}
	s := setting{start: loc[0], indent: body[loc[2]:loc[3]]}
	i := loc[1]
	if i < len(body) && body[i] == '(' {
		closing := scanUntil(body, i+1, ')')
		if closing < 0 {
			return setting{}, false
		}
		s.list = true
		s.values = splitItems(body[i+1 : closing])
		i = closing + 1
	}
	semi := scanUntil(body, i, ';')
	if semi < 0 {
		return setting{}, false
	}
	if !s.list {
		s.values = []string{unquote(strings.TrimSpace(body[i:semi]))}
	}
	s.end = semi + 1
	return s, true
}

func insertSetting(body, line string) string {
	return "\n" + line + body
}

func blockIndent(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed != "" && !strings.HasPrefix(trimmed, "}") {
			return line[:len(line)-len(trimmed)]
		}
	}
	return "\t\t\t\t"
}

func renderSetting(indent, name string, values []string, list bool) string {
	if !list {
		return indent + quote(name) + " = " + quote(values[0]) + ";"
	}
	var b strings.Builder
	b.WriteString(indent + quote(name) + " = (\n")
	for _, v := range values {
		b.WriteString(indent + "\t" + quote(v) + ",\n")
	}
	b.WriteString(indent + ");")
	return b.String()
}

func quote(v string) string {
	if bareValue.MatchString(v) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(v) + `"`
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		r := strings.NewReplacer(`\"`, `"`, `\\`, `\`)
		return r.Replace(v[1 : len(v)-1])
	}
	return v
}

// splitItems splits a comma separated list body, honouring quotes.
func splitItems(s string) []string {
	var items []string
	start := 0
	for {
		comma := scanUntil(s, start, ',')
		if comma < 0 {
			if item := strings.TrimSpace(s[start:]); item != "" {
				items = append(items, unquote(item))
			}
			return items
		}
		if item := strings.TrimSpace(s[start:comma]); item != "" {
			items = append(items, unquote(item))
		}
		start = comma + 1
	}
}

// scanUntil returns the index of the first target byte at or after
// from that is outside a quoted string, or -1.
func scanUntil(s string, from int, target byte) int {
	inQuote := false
	for i := from; i < len(s); i++ {
		c := s[i]
		if inQuote {
			switch c {
			case '\\':
				i++
			case '"':
				inQuote = false
			}
			continue
		}
		if c == '"' {
			inQuote = true
			continue
		}
		if c == target {
			return i
		}
	}
	return -1
}

// matchBrace returns the index of the '}' closing the dictionary whose
// body starts at from, or -1.
func matchBrace(s string, from int) int {
	depth := 1
	inQuote := false
	for i := from; i < len(s); i++ {
		c := s[i]
		if inQuote {
			switch c {
			case '\\':
				i++
			case '"':
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
