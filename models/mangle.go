package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"
)

// The host's reserved words. True, False and None are left out: Hy
// spells them as ordinary symbols.
var reservedWords = map[string]bool{
	"and": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "class": true, "continue": true, "def": true, "del": true,
	"elif": true, "else": true, "except": true, "finally": true, "for": true,
	"from": true, "global": true, "if": true, "import": true, "in": true,
	"is": true, "lambda": true, "nonlocal": true, "not": true, "or": true,
	"pass": true, "raise": true, "return": true, "try": true, "while": true,
	"with": true, "yield": true,
}

const mangleDelim = 'X'

// IsReserved reports whether s is a reserved word of the host.
func IsReserved(s string) bool {
	return reservedWords[s]
}

func isIDStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.Is(unicode.Nl, r)
}

func isIDContinue(r rune) bool {
	return isIDStart(r) || unicode.In(r, unicode.Nd, unicode.Mn, unicode.Mc, unicode.Pc)
}

// IsIdentifier reports whether s is usable as a host identifier as is.
func IsIdentifier(s string) bool {
	if s == "" || reservedWords[s] {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIDStart(r) || i > 0 && !isIDContinue(r) {
			return false
		}
	}
	return true
}

// Mangle turns a Hy name into a valid host identifier. Each dotted part is
// mangled separately. A leading run of underscores is kept, '-' becomes
// '_', a trailing '?' becomes an "is_" prefix and *earmuffs* become upper
// case. Whatever is still not an identifier is prefixed with "hyx_" and
// has each offending character spelled out as XnameX or XUhexX.
func Mangle(s string) string {
	if strings.Contains(s, ".") && strings.Trim(s, ".") != "" {
		parts := strings.Split(s, ".")
		for i, p := range parts {
			if p != "" {
				parts[i] = Mangle(p)
			}
		}
		return strings.Join(parts, ".")
	}

	if n := len(s); n > 2 && s[0] == '*' && s[n-1] == '*' && strings.Trim(s, "*") != "" {
		s = strings.ToUpper(s[1 : n-1])
	}

	body := strings.TrimLeft(s, "_")
	leading := strings.Repeat("_", len(s)-len(body))

	if body != "" {
		body = body[:1] + strings.ReplaceAll(body[1:], "-", "_")
	}
	if strings.HasSuffix(body, "?") {
		body = "is_" + body[:len(body)-1]
	}

	if !IsIdentifier(leading+body) && s != "" {
		var b strings.Builder
		b.WriteString("hyx_")
		for _, r := range norm.NFKC.String(body) {
			if r != mangleDelim && isIDContinue(r) {
				b.WriteRune(r)
				continue
			}
			b.WriteRune(mangleDelim)
			b.WriteString(charName(r))
			b.WriteRune(mangleDelim)
		}
		body = b.String()
	}
	return leading + body
}

func charName(r rune) string {
	name := runenames.Name(r)
	if name == "" || strings.HasPrefix(name, "<") {
		return fmt.Sprintf("U%x", r)
	}
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", "H")
	return strings.ReplaceAll(name, " ", "_")
}

var escapeRe = regexp.MustCompile(`X(U)?([_a-z0-9H]+?)X`)

// Unmangle reverses Mangle as far as the encoding allows: hyx_ escapes are
// decoded, an "is_" prefix becomes a trailing '?' and underscores become
// hyphens. Upper-case names stay upper case; earmuffs are not restored.
func Unmangle(s string) string {
	body := strings.TrimLeft(s, "_")
	leading := len(s) - len(body)

	if strings.HasPrefix(body, "hyx_") {
		body = escapeRe.ReplaceAllStringFunc(body[len("hyx_"):], func(m string) string {
			sub := escapeRe.FindStringSubmatch(m)
			if sub[1] != "" {
				if n, err := strconv.ParseUint(sub[2], 16, 32); err == nil {
					return string(rune(n))
				}
				return m
			}
			key := strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(sub[2], "_", " "), "H", "-"))
			if r, ok := lookupName(key); ok {
				return string(r)
			}
			return m
		})
	}
	if strings.HasPrefix(body, "is_") {
		body = body[len("is_"):] + "?"
	}
	body = strings.ReplaceAll(body, "_", "-")
	return strings.Repeat("-", leading) + body
}

var (
	namesOnce sync.Once
	byName    map[string]rune
)

func lookupName(name string) (rune, bool) {
	namesOnce.Do(func() {
		byName = make(map[string]rune)
		for r := rune(0); r <= unicode.MaxRune; r++ {
			if r >= 0xd800 && r <= 0xdfff {
				continue
			}
			n := runenames.Name(r)
			if n == "" || strings.HasPrefix(n, "<") {
				continue
			}
			if _, dup := byName[n]; !dup {
				byName[n] = r
			}
		}
	})
	r, ok := byName[name]
	return r, ok
}
