package entity

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/isometry/adentity/session"
)

// fakeDirectory is an in-memory Directory: a DN-keyed attribute store with
// just enough search semantics for the entity layer, recording every write
// request for assertions.
type fakeDirectory struct {
	rootDN  string
	entries map[string]map[string][]string

	adds    []*session.AddRequest
	mods    []*session.ModifyRequest
	dels    []string
	guidSeq byte
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		rootDN:  "DC=example,DC=com",
		entries: make(map[string]map[string][]string),
	}
}

func (f *fakeDirectory) RootDN() string { return f.rootDN }

// put stores an entry verbatim, bypassing server-assignment.
func (f *fakeDirectory) put(dn string, attrs map[string][]string) {
	stored := make(map[string][]string, len(attrs)+1)
	maps.Copy(stored, attrs)
	stored["distinguishedName"] = []string{dn}
	f.entries[dn] = stored
}

// nextGUID fabricates a distinct binary objectGUID per created entry.
func (f *fakeDirectory) nextGUID() []byte {
	f.guidSeq++
	b := make([]byte, 16)
	b[15] = f.guidSeq
	return b
}

func (f *fakeDirectory) Search(_ context.Context, req *session.SearchRequest) (*session.SearchResult, error) {
	var result session.SearchResult

	switch req.Scope {
	case session.ScopeBaseObject:
		if attrs, ok := f.entries[req.BaseDN]; ok && filterMatches(req.Filter, attrs) {
			result.Entries = append(result.Entries, fakeEntry(req.BaseDN, attrs))
		}
	case session.ScopeWholeSubtree:
		var dns []string
		for dn := range f.entries {
			if dn == req.BaseDN || strings.HasSuffix(dn, ","+req.BaseDN) {
				dns = append(dns, dn)
			}
		}
		slices.Sort(dns)
		for _, dn := range dns {
			if filterMatches(req.Filter, f.entries[dn]) {
				result.Entries = append(result.Entries, fakeEntry(dn, f.entries[dn]))
			}
		}
	}

	return &result, nil
}

func (f *fakeDirectory) Add(_ context.Context, req *session.AddRequest) error {
	if _, exists := f.entries[req.DN]; exists {
		return fmt.Errorf("entry already exists: %s", req.DN)
	}
	f.adds = append(f.adds, req)

	stored := make(map[string][]string, len(req.Attributes)+2)
	maps.Copy(stored, req.Attributes)
	stored["objectGUID"] = []string{string(f.nextGUID())}
	stored["distinguishedName"] = []string{req.DN}
	stored["instanceType"] = []string{"4"}
	f.entries[req.DN] = stored
	return nil
}

func (f *fakeDirectory) Modify(_ context.Context, req *session.ModifyRequest) error {
	attrs, ok := f.entries[req.DN]
	if !ok {
		return fmt.Errorf("no such entry: %s", req.DN)
	}
	f.mods = append(f.mods, req)

	for key, values := range req.ReplaceAttributes {
		if len(values) == 0 {
			delete(attrs, key)
		} else {
			attrs[key] = values
		}
	}
	return nil
}

func (f *fakeDirectory) Delete(_ context.Context, dn string) error {
	if _, ok := f.entries[dn]; !ok {
		return fmt.Errorf("no such entry: %s", dn)
	}
	f.dels = append(f.dels, dn)
	delete(f.entries, dn)
	return nil
}

// filterMatches approximates the object class and account name terms of the
// filters the entity layer generates; other filter expressions are not
// interpreted.
func filterMatches(filter string, attrs map[string][]string) bool {
	for _, class := range []string{"organizationalUnit", "organizationalPerson"} {
		if strings.Contains(filter, "(objectClass="+class+")") && !slices.Contains(attrs["objectClass"], class) {
			return false
		}
	}

	if _, rest, found := strings.Cut(filter, "(sAMAccountName="); found {
		value, _, _ := strings.Cut(rest, ")")
		if !slices.Contains(attrs["sAMAccountName"], value) {
			return false
		}
	}

	return true
}

func fakeEntry(dn string, attrs map[string][]string) *ldap.Entry {
	copied := make(map[string][]string, len(attrs))
	for key, values := range attrs {
		copied[key] = slices.Clone(values)
	}
	return ldap.NewEntry(dn, copied)
}
