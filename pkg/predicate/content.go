package predicate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"

	"github.com/macropower/gumshoe/pkg/log"
)

// Grep checks that the content of the first match contains at least one
// match for a regular expression.
type Grep struct {
	re     *regexp.Regexp
	source string
}

// NewGrep creates a [Grep] from a pattern accepted by [ParsePattern].
func NewGrep(pattern string) (*Grep, error) {
	re, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}

	return &Grep{re: re, source: pattern}, nil
}

// MustNewGrep creates a [Grep] and panics on error.
func MustNewGrep(pattern string) *Grep {
	g, err := NewGrep(pattern)
	if err != nil {
		panic(err)
	}

	return g
}

// GrepRegexp creates a [Grep] from a compiled expression.
func GrepRegexp(re *regexp.Regexp) *Grep {
	return &Grep{re: re, source: re.String()}
}

// Kind implements [Predicate].
func (*Grep) Kind() Kind { return KindGrep }

// Value implements [Predicate].
func (p *Grep) Value() any { return p.source }

// Eval implements [Predicate].
func (p *Grep) Eval(ctx context.Context, t *Target) (bool, error) {
	content, ok := read(ctx, t)
	if !ok {
		return false, nil
	}

	return p.re.Match(content), nil
}

// ParsePattern compiles a grep pattern. Patterns are RE2 syntax. A pattern
// written as a `/source/flags` literal has its flags translated: `i`, `m`,
// `s` and `U` become inline flags, while `g`, `u`, `y` and `d` are accepted
// and ignored.
func ParsePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidValue)
	}

	source := pattern

	end := strings.LastIndexByte(pattern, '/')
	if pattern[0] == '/' && end > 0 {
		if flags, ok := translateFlags(pattern[end+1:]); ok {
			source = pattern[1:end]
			if flags != "" {
				source = "(?" + flags + ")" + source
			}
		}
	}

	re, err := regexp.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}

	return re, nil
}

func translateFlags(flags string) (string, bool) {
	var sb strings.Builder

	for _, f := range flags {
		switch f {
		case 'i', 'm', 's', 'U':
			if !strings.ContainsRune(sb.String(), f) {
				sb.WriteRune(f)
			}
		case 'g', 'u', 'y', 'd':
		default:
			return "", false
		}
	}

	return sb.String(), true
}

func decodeGrep(value any) (Predicate, error) {
	switch v := value.(type) {
	case string:
		return NewGrep(v)
	case *regexp.Regexp:
		return GrepRegexp(v), nil
	}

	return nil, fmt.Errorf("%w: want string, got %T", ErrInvalidValue, value)
}

// KeyPath is a dot-separated key path such as "scripts.test". Segments
// index objects by key and arrays by position.
type KeyPath []string

// ParseKeyPath splits a dotted key path.
func ParseKeyPath(s string) (KeyPath, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty key path", ErrInvalidValue)
	}

	return KeyPath(strings.Split(s, ".")), nil
}

// String returns the dotted form of the path.
func (kp KeyPath) String() string {
	return strings.Join(kp, ".")
}

// Lookup walks v segment by segment. It reports false if a segment is
// missing or the walk reaches a value that is not a container.
func (kp KeyPath) Lookup(v any) bool {
	cur := v

	for _, seg := range kp {
		switch c := cur.(type) {
		case map[string]any:
			next, ok := c[seg]
			if !ok {
				return false
			}

			cur = next

		case map[any]any:
			found := false

			for k, next := range c {
				if fmt.Sprint(k) == seg {
					cur, found = next, true

					break
				}
			}

			if !found {
				return false
			}

		case yaml.MapSlice:
			found := false

			for _, item := range c {
				if fmt.Sprint(item.Key) == seg {
					cur, found = item.Value, true

					break
				}
			}

			if !found {
				return false
			}

		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(c) {
				return false
			}

			cur = c[i]

		default:
			return false
		}
	}

	return true
}

// gjsonPath escapes every segment so that gjson reads it as a plain key.
func (kp KeyPath) gjsonPath() string {
	var sb strings.Builder

	for i, seg := range kp {
		if i > 0 {
			sb.WriteByte('.')
		}

		for _, r := range seg {
			if !isPlainKeyRune(r) {
				sb.WriteByte('\\')
			}

			sb.WriteRune(r)
		}
	}

	return sb.String()
}

func isPlainKeyRune(r rune) bool {
	return r == '_' || r == '-' || r >= utf8.RuneSelf ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// JSONKeyExists checks that the content of the first match is valid JSON
// containing a key path.
type JSONKeyExists struct {
	path KeyPath
}

// NewJSONKeyExists creates a [JSONKeyExists] from a dotted key path.
func NewJSONKeyExists(keyPath string) (*JSONKeyExists, error) {
	kp, err := ParseKeyPath(keyPath)
	if err != nil {
		return nil, err
	}

	return &JSONKeyExists{path: kp}, nil
}

// MustNewJSONKeyExists creates a [JSONKeyExists] and panics on error.
func MustNewJSONKeyExists(keyPath string) *JSONKeyExists {
	p, err := NewJSONKeyExists(keyPath)
	if err != nil {
		panic(err)
	}

	return p
}

// Kind implements [Predicate].
func (*JSONKeyExists) Kind() Kind { return KindJSONKeyExists }

// Value implements [Predicate].
func (p *JSONKeyExists) Value() any { return p.path.String() }

// Eval implements [Predicate].
func (p *JSONKeyExists) Eval(ctx context.Context, t *Target) (bool, error) {
	content, ok := read(ctx, t)
	if !ok {
		return false, nil
	}

	if !gjson.ValidBytes(content) {
		log.WithContext(ctx).Debug("invalid JSON, treating as no match",
			slog.String("path", t.Path()),
		)

		return false, nil
	}

	return gjson.GetBytes(content, p.path.gjsonPath()).Exists(), nil
}

// YAMLKeyExists checks that the content of the first match is valid YAML
// containing a key path.
type YAMLKeyExists struct {
	path KeyPath
}

// NewYAMLKeyExists creates a [YAMLKeyExists] from a dotted key path.
func NewYAMLKeyExists(keyPath string) (*YAMLKeyExists, error) {
	kp, err := ParseKeyPath(keyPath)
	if err != nil {
		return nil, err
	}

	return &YAMLKeyExists{path: kp}, nil
}

// MustNewYAMLKeyExists creates a [YAMLKeyExists] and panics on error.
func MustNewYAMLKeyExists(keyPath string) *YAMLKeyExists {
	p, err := NewYAMLKeyExists(keyPath)
	if err != nil {
		panic(err)
	}

	return p
}

// Kind implements [Predicate].
func (*YAMLKeyExists) Kind() Kind { return KindYAMLKeyExists }

// Value implements [Predicate].
func (p *YAMLKeyExists) Value() any { return p.path.String() }

// Eval implements [Predicate].
func (p *YAMLKeyExists) Eval(ctx context.Context, t *Target) (bool, error) {
	content, ok := read(ctx, t)
	if !ok {
		return false, nil
	}

	var doc any

	err := yaml.Unmarshal(content, &doc)
	if err != nil {
		log.WithContext(ctx).Debug("invalid YAML, treating as no match",
			slog.String("path", t.Path()),
			slog.Any("err", err),
		)

		return false, nil
	}

	return p.path.Lookup(doc), nil
}

func read(ctx context.Context, t *Target) ([]byte, bool) {
	if !t.Present() {
		return nil, false
	}

	content, err := t.Content()
	if err != nil {
		log.WithContext(ctx).Debug("read failed, treating as no match",
			slog.String("path", t.Path()),
			slog.Any("err", err),
		)

		return nil, false
	}

	return content, true
}
