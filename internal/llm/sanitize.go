package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/jobfit/constants"
)

var reLeadingInt = regexp.MustCompile(`\d+`)

// SanitizeJobRecordJSON
// - Renames known synonyms (company_name -> company, title -> position.name)
// - Folds required_skills / nice_to_have_skills into skills when skills is absent
// - Fills skill defaults (priority 3, isMustHave false); a zero priority becomes 3, others clamp to 1..5
// - Canonicalizes skill type and coerces yearsRequired like "5+" to 5
// - Drops skills without a name
// - Drops optional string fields that are null or not strings (location, position.name, compensation.currency)
// Context strings are left untouched. Returns the rewritten document and a list of changes.
func SanitizeJobRecordJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	changes := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			changes = append(changes, from+"->"+to)
		}
	}

	// 1) top-level synonyms
	if info, ok := m["company_info"].(map[string]any); ok {
		if _, has := m["company"]; !has {
			m["company"] = info["name"]
		}
		if _, has := m["position"]; !has {
			if p, isStr := info["position"].(string); isStr {
				m["position"] = map[string]any{"name": p, "level": info["level"]}
			}
		}
		delete(m, "company_info")
		changes = append(changes, "company_info(flattened)")
	}
	renamed("company_name", "company")
	renamed("employer", "company")

	// 2) company: string or nothing
	switch v := m["company"].(type) {
	case string:
		m["company"] = strings.TrimSpace(v)
	case nil:
		if _, ok := m["company"]; ok {
			delete(m, "company")
			changes = append(changes, "company(null)")
		}
	default:
		delete(m, "company")
		changes = append(changes, "company(type)")
	}

	// 3) position: object with name/level
	sanitizePosition(m, &changes)

	// 4) skills
	if _, ok := m["skills"]; !ok {
		folded := foldSplitSkills(m)
		if folded != nil {
			m["skills"] = folded
			changes = append(changes, "skills(folded)")
		}
	}
	if v, ok := m["skills"]; ok {
		arr, isArr := v.([]any)
		if !isArr {
			delete(m, "skills")
			changes = append(changes, "skills(type)")
		} else {
			m["skills"] = sanitizeSkills(arr, &changes)
		}
	}

	// 5) remote flag
	if v, ok := m["remote"]; ok {
		switch t := v.(type) {
		case bool, nil:
		case string:
			if b, ok := parseLooseBool(t); ok {
				m["remote"] = b
			} else {
				delete(m, "remote")
			}
			changes = append(changes, "remote(coerced)")
		default:
			delete(m, "remote")
			changes = append(changes, "remote(type)")
		}
	}

	// 6) optional strings: a null means "not stated"
	if dropNonString(m, "location", "location", &changes) {
		m["location"] = strings.TrimSpace(m["location"].(string))
	}
	sanitizeCompensation(m, &changes)

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changes, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changes) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "changes", changes)
	}
	return out, changes, nil
}

func sanitizePosition(m map[string]any, changes *[]string) {
	switch v := m["position"].(type) {
	case map[string]any:
		if _, ok := v["name"].(string); !ok {
			if t, ok := v["title"].(string); ok {
				v["name"] = t
				delete(v, "title")
				*changes = append(*changes, "position.title->position.name")
			}
		}
		if dropNonString(v, "name", "position.name", changes) {
			v["name"] = strings.TrimSpace(v["name"].(string))
		}
		return
	case string:
		m["position"] = map[string]any{"name": strings.TrimSpace(v)}
		*changes = append(*changes, "position(string)")
		return
	case nil:
	default:
		delete(m, "position")
		*changes = append(*changes, "position(type)")
		return
	}

	for _, k := range []string{"title", "position_name", "job_title"} {
		if t, ok := m[k].(string); ok {
			pos := map[string]any{"name": strings.TrimSpace(t)}
			if lvl, ok := m["level"]; ok {
				pos["level"] = lvl
				delete(m, "level")
			}
			m["position"] = pos
			delete(m, k)
			*changes = append(*changes, k+"->position.name")
			return
		}
	}
}

func sanitizeCompensation(m map[string]any, changes *[]string) {
	v, ok := m["compensation"]
	if !ok || v == nil {
		return
	}
	comp, isObj := v.(map[string]any)
	if !isObj {
		delete(m, "compensation")
		*changes = append(*changes, "compensation(type)")
		return
	}
	if dropNonString(comp, "currency", "compensation.currency", changes) {
		comp["currency"] = strings.TrimSpace(comp["currency"].(string))
	}
}

// dropNonString removes obj[key] unless it holds a string and reports whether a string remains.
func dropNonString(obj map[string]any, key, label string, changes *[]string) bool {
	v, ok := obj[key]
	if !ok {
		return false
	}
	if _, isStr := v.(string); isStr {
		return true
	}
	delete(obj, key)
	if v == nil {
		*changes = append(*changes, label+"(null)")
	} else {
		*changes = append(*changes, label+"(type)")
	}
	return false
}

// foldSplitSkills handles the older two-list shape some prompts produce.
func foldSplitSkills(m map[string]any) []any {
	req, hasReq := m["required_skills"].([]any)
	nice, hasNice := m["nice_to_have_skills"].([]any)
	if !hasReq && !hasNice {
		return nil
	}
	out := make([]any, 0, len(req)+len(nice))
	mark := func(list []any, mustHave bool) {
		for _, s := range list {
			obj, ok := s.(map[string]any)
			if !ok {
				if name, isStr := s.(string); isStr {
					obj = map[string]any{"name": name}
				} else {
					continue
				}
			}
			if _, set := obj["isMustHave"]; !set {
				obj["isMustHave"] = mustHave
			}
			out = append(out, obj)
		}
	}
	mark(req, true)
	mark(nice, false)
	delete(m, "required_skills")
	delete(m, "nice_to_have_skills")
	return out
}

func sanitizeSkills(arr []any, changes *[]string) []any {
	out := make([]any, 0, len(arr))
	for i, s := range arr {
		obj, ok := s.(map[string]any)
		if !ok {
			name, isStr := s.(string)
			if !isStr {
				*changes = append(*changes, fmt.Sprintf("skills[%d](type)", i))
				continue
			}
			obj = map[string]any{"name": name}
		}

		name, _ := obj["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			*changes = append(*changes, fmt.Sprintf("skills[%d](no_name)", i))
			continue
		}
		obj["name"] = name

		label, _ := obj["type"].(string)
		st, known := constants.CanonicalizeSkillType(label)
		if !known || label != string(st) {
			*changes = append(*changes, fmt.Sprintf("skills[%d].type", i))
		}
		obj["type"] = string(st)

		obj["priority"] = coercePriority(obj["priority"])

		if b, ok := obj["isMustHave"].(bool); ok {
			obj["isMustHave"] = b
		} else if str, ok := obj["isMustHave"].(string); ok {
			b, _ := parseLooseBool(str)
			obj["isMustHave"] = b
		} else {
			obj["isMustHave"] = false
		}

		obj["yearsRequired"] = coerceYears(obj["yearsRequired"])

		if p, ok := obj["proficiencyLevel"].(string); ok {
			obj["proficiencyLevel"] = strings.TrimSpace(p)
		} else {
			delete(obj, "proficiencyLevel")
		}

		if _, ok := obj["context"].(string); !ok {
			delete(obj, "context")
		}
		out = append(out, obj)
	}
	return out
}

func coercePriority(v any) int {
	p := constants.DefaultSkillPriority
	switch t := v.(type) {
	case float64:
		p = int(math.Round(t))
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			p = n
		}
	}
	switch {
	case p == 0:
		p = constants.DefaultSkillPriority
	case p < constants.MinSkillPriority:
		p = constants.MinSkillPriority
	case p > constants.MaxSkillPriority:
		p = constants.MaxSkillPriority
	}
	return p
}

func coerceYears(v any) any {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return nil
		}
		return int(math.Round(t))
	case string:
		if d := reLeadingInt.FindString(t); d != "" {
			if n, err := strconv.Atoi(d); err == nil {
				return n
			}
		}
	}
	return nil
}

func parseLooseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "remote", "required", "must":
		return true, true
	case "false", "no", "n", "0", "onsite", "on-site", "optional", "preferred":
		return false, true
	}
	return false, false
}
