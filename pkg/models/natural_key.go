package models

import "strings"

// NaturalKey is a business field that identifies the same logical entity
// across backends that share no primary-key space. Cross-store joins use
// natural keys exclusively; typed IDs never leave their own store.
type NaturalKey string

// NaturallyKeyed is implemented by entities that can be matched across
// stores without a shared ID.
type NaturallyKeyed interface {
	NaturalKey() NaturalKey
}

// NormalizeEmail lowercases and trims an email so mirror lookups are
// insensitive to how the address was typed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Account) NaturalKey() NaturalKey { return NaturalKey(NormalizeEmail(a.Email)) }
func (t *Topic) NaturalKey() NaturalKey   { return NaturalKey(t.Name) }
func (c *Course) NaturalKey() NaturalKey  { return NaturalKey(c.Title) }
func (l *Lesson) NaturalKey() NaturalKey  { return NaturalKey(l.Title) }
