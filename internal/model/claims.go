package model

// Claim types understood by the token codec.
const (
	ClaimSubject = "sub"
	ClaimTokenID = "jti"
	ClaimRole    = "role"
)

type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ClaimSet is an ordered list of claims. The canonical order is subject,
// token id, then roles.
type ClaimSet []Claim

func NewClaimSet(subject string, tokenID string, roles ...string) ClaimSet {
	claims := make(ClaimSet, 0, 2+len(roles))
	claims = append(claims, Claim{Type: ClaimSubject, Value: subject})
	claims = append(claims, Claim{Type: ClaimTokenID, Value: tokenID})
	for _, role := range roles {
		claims = append(claims, Claim{Type: ClaimRole, Value: role})
	}
	return claims
}

func (c ClaimSet) first(claimType string) string {
	for _, claim := range c {
		if claim.Type == claimType {
			return claim.Value
		}
	}
	return ""
}

func (c ClaimSet) Subject() string {
	return c.first(ClaimSubject)
}

func (c ClaimSet) TokenID() string {
	return c.first(ClaimTokenID)
}

func (c ClaimSet) Roles() []string {
	roles := make([]string, 0, len(c))
	for _, claim := range c {
		if claim.Type == ClaimRole {
			roles = append(roles, claim.Value)
		}
	}
	return roles
}

func (c ClaimSet) HasRole(role string) bool {
	for _, claim := range c {
		if claim.Type == ClaimRole && claim.Value == role {
			return true
		}
	}
	return false
}
