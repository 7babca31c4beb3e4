package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var defaultFiles embed.FS

// DefaultLanguage 는 번역이 없을 때 사용하는 언어.
const DefaultLanguage = "en"

// Catalog loads caption templates from embedded defaults and an optional override directory.
// Values are rendered with text/template (missing keys cause errors).
type Catalog struct {
	mu   sync.RWMutex
	data map[string]string // flattened dot-keys → template text
	tpls map[string]*template.Template
}

// New loads the embedded captions and then applies overrides from dir if provided.
func New(overrideDir string) (*Catalog, error) {
	base := &Catalog{data: make(map[string]string), tpls: make(map[string]*template.Template)}

	if err := base.loadEmbedded(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := base.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return base, nil
}

func (c *Catalog) loadEmbedded() error {
	raw, err := fs.ReadFile(defaultFiles, "labels.yaml")
	if err != nil {
		return fmt.Errorf("read embedded labels: %w", err)
	}
	return c.applyYAML(raw)
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read override dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	// 여러 오버라이드 파일에 같은 키가 있으면 거부
	seen := make(map[string]string)
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		flat, err := parseYAMLToFlat(b)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for k := range flat {
			if prev, ok := seen[k]; ok {
				return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
			}
			seen[k] = name
		}
		c.set(flat)
	}
	return nil
}

func parseYAMLToFlat(b []byte) (map[string]string, error) {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	flat := make(map[string]string)
	if err := flattenStrings(m, "", flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func (c *Catalog) applyYAML(b []byte) error {
	flat, err := parseYAMLToFlat(b)
	if err != nil {
		return err
	}
	c.set(flat)
	return nil
}

func (c *Catalog) set(flat map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range flat {
		c.data[k] = v
		delete(c.tpls, k)
	}
}

// Override replaces single captions at runtime, e.g. from the settings file's labels map.
func (c *Catalog) Override(lang string, labels map[string]string) {
	if len(labels) == 0 {
		return
	}
	lang = normalizeLang(lang)
	flat := make(map[string]string, len(labels))
	for k, v := range labels {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || strings.TrimSpace(v) == "" {
			continue
		}
		if isTitleKey(k) {
			flat[lang+".titles."+k] = v
		} else {
			flat[lang+".labels."+k] = v
		}
	}
	c.set(flat)
}

func flattenStrings(src any, prefix string, out map[string]string) error {
	switch v := src.(type) {
	case map[string]any:
		for k, vv := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flattenStrings(vv, key, out); err != nil {
				return err
			}
		}
		return nil
	case map[any]any:
		tmp := make(map[string]any)
		for kk, vv := range v {
			tmp[fmt.Sprint(kk)] = vv
		}
		return flattenStrings(tmp, prefix, out)
	case string:
		if prefix == "" {
			return errors.New("string value without key prefix")
		}
		out[prefix] = v
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

// Lookup returns the raw text for key.
func (c *Catalog) Lookup(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[strings.TrimSpace(key)]
	return v, ok && strings.TrimSpace(v) != ""
}

// Render executes a template by key with the provided data.
func (c *Catalog) Render(key string, data any) (string, error) {
	key = strings.TrimSpace(key)
	c.mu.RLock()
	tpl, ok := c.data[key]
	parsed := c.tpls[key]
	c.mu.RUnlock()
	if !ok || strings.TrimSpace(tpl) == "" {
		return "", fmt.Errorf("template not found: %s", key)
	}
	if parsed == nil {
		t, err := template.New(key).Option("missingkey=error").Parse(tpl)
		if err != nil {
			return "", err
		}
		parsed = t
		c.mu.Lock()
		c.tpls[key] = t
		c.mu.Unlock()
	}
	var b strings.Builder
	if err := parsed.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Label returns the caption for a quality label: lang, then English, then the
// upper-cased key.
func (c *Catalog) Label(lang, key string) string {
	return c.caption(lang, "labels", key)
}

// Title returns section titles (engine_suggests, opponent_best, evaluation).
func (c *Catalog) Title(lang, key string) string {
	return c.caption(lang, "titles", key)
}

func (c *Catalog) caption(lang, group, key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, l := range []string{normalizeLang(lang), DefaultLanguage} {
		if v, ok := c.Lookup(l + "." + group + "." + key); ok {
			return v
		}
	}
	return strings.ToUpper(strings.ReplaceAll(key, "_", " "))
}

// Languages lists languages that carry at least one label.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	set := map[string]struct{}{}
	for k := range c.data {
		if i := strings.Index(k, ".labels."); i > 0 {
			set[k[:i]] = struct{}{}
		}
	}
	c.mu.RUnlock()
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Evaluation formats a centipawn score as pawns with a sign (+0.35).
func (c *Catalog) Evaluation(cp int) string {
	s, err := c.Render("format.eval_cp", map[string]any{"CP": cp, "Pawns": float64(cp) / 100})
	if err != nil {
		return fmt.Sprintf("%+.2f", float64(cp)/100)
	}
	return s
}

// Mate formats a mate distance; negative means the side to move gets mated.
func (c *Catalog) Mate(n int) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	s, err := c.Render("format.eval_mate", map[string]any{"Mate": n, "Abs": abs})
	if err != nil {
		return fmt.Sprintf("#%d", n)
	}
	return s
}

func (c *Catalog) Depth(d int) string {
	s, err := c.Render("format.depth", map[string]any{"Depth": d})
	if err != nil {
		return fmt.Sprintf("d%d", d)
	}
	return s
}

func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

func isTitleKey(k string) bool {
	switch k {
	case "engine_suggests", "opponent_best", "evaluation":
		return true
	}
	return false
}
