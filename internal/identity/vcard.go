package identity

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-vcard"
)

// fieldPresence is the extension property carrying presence status.
const fieldPresence = "X-PRESENCE"

// ReadVCards decodes every vCard in r into identities. The card's UID
// becomes the identity id; cards without a UID fall back to their
// lower-cased email. ORG components after the organization name are
// taken as the department.
func ReadVCards(r io.Reader) ([]Identity, error) {
	dec := vcard.NewDecoder(r)

	var idents []Identity
	for n := 1; ; n++ {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode vcard %d: %w", n, err)
		}

		ident, err := fromCard(card)
		if err != nil {
			return nil, fmt.Errorf("vcard %d: %w", n, err)
		}
		idents = append(idents, ident)
	}
	return idents, nil
}

func fromCard(card vcard.Card) (Identity, error) {
	ident := Identity{
		DisplayName: card.PreferredValue(vcard.FieldFormattedName),
		Role:        card.PreferredValue(vcard.FieldTitle),
		Presence:    Presence(strings.ToLower(card.Value(fieldPresence))),
	}
	if ident.Role == "" {
		ident.Role = card.PreferredValue(vcard.FieldRole)
	}

	if raw := card.PreferredValue(vcard.FieldEmail); raw != "" {
		addr, err := ParseEmail(raw)
		if err != nil {
			return Identity{}, err
		}
		ident.Email = addr
	}

	if org := card.PreferredValue(vcard.FieldOrganization); org != "" {
		parts := strings.Split(org, ";")
		if len(parts) > 1 {
			ident.Department = strings.TrimSpace(strings.Join(parts[1:], " "))
		}
	}

	ident.ID = strings.TrimSpace(card.Value(vcard.FieldUID))
	if ident.ID == "" {
		ident.ID = strings.ToLower(ident.Email)
	}
	if ident.ID == "" {
		return Identity{}, fmt.Errorf("card %q has neither UID nor EMAIL", ident.DisplayName)
	}
	if ident.DisplayName == "" {
		ident.DisplayName = ident.Email
	}
	return ident, nil
}
