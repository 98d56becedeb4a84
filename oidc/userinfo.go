package oidc

// UserInfo is the open-ended set of claims the provider asserts about the
// authenticated subject.  The provider's claim set is not fixed, so values
// are an arbitrary JSON tree: strings, numbers, bools, lists and nested
// objects (for example an "authmachine_permissions" list).
type UserInfo map[string]interface{}

// Subject returns the "sub" claim, or an empty string when absent.
func (u UserInfo) Subject() string {
	s, _ := u["sub"].(string)
	return s
}

// StringSlice returns the named claim as a list of strings.  Non-string
// elements are skipped; a missing or non-list claim yields nil.
func (u UserInfo) StringSlice(claim string) []string {
	raw, ok := u[claim].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
