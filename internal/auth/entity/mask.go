package entity

import "strings"

// MaskEmail keeps the first and last character of the local part, e.g.
// "janedoe@example.com" becomes "j***e@example.com". Local parts of one or
// two characters become "*@domain". Input without "@" yields "".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}

	r := []rune(local)
	if len(r) <= 2 {
		return "*@" + domain
	}

	return string(r[0]) + "***" + string(r[len(r)-1]) + "@" + domain
}
