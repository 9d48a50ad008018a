package entity

import (
	"context"
	"errors"
	"fmt"

	"github.com/isometry/adentity/session"
)

// userAccountControlActive is the userAccountControl value of an enabled
// account with password-not-required cleared and normal account flags:
// PASSWD_NOTREQD (0x20) | NORMAL_ACCOUNT (0x200).
const userAccountControlActive = "544"

// UserSchema describes a user account. Logon statistics and the SID are
// server-maintained; the account name is fixed once assigned because the DN
// derives from it.
var UserSchema = Base.MustExtend(Extension{
	Name: "user",
	Attributes: []*Spec{
		{Name: "cn", Key: "cn", Policy: Mutable},
		{Name: "account_expires", Key: "accountExpires", Policy: Mutable},
		{Name: "bad_password_time", Key: "badPasswordTime", Policy: ReadOnly},
		{Name: "bad_pwd_count", Key: "badPwdCount", Policy: ReadOnly},
		{Name: "code_page", Key: "codePage", Policy: Mutable},
		{Name: "country_code", Key: "countryCode", Policy: Mutable},
		{Name: "department", Key: "department", Policy: Mutable},
		{Name: "display_name", Key: "displayName", Policy: Mutable},
		{Name: "given_name", Key: "givenName", Policy: Mutable},
		{Name: "last_logoff", Key: "lastLogoff", Policy: ReadOnly},
		{Name: "last_logon", Key: "lastLogon", Policy: ReadOnly},
		{Name: "last_logon_timestamp", Key: "lastLogonTimestamp", Policy: ReadOnly},
		{Name: "logon_count", Key: "logonCount", Policy: ReadOnly},
		{Name: "mail", Key: "mail", Policy: Mutable},
		{Name: "object_sid", Key: "objectSid", Policy: ReadOnly},
		{Name: "primary_group_id", Key: "primaryGroupID", Policy: Mutable},
		{Name: "pwd_last_set", Key: "pwdLastSet", Policy: Mutable},
		{Name: "s_am_account_name", Key: "sAMAccountName", Policy: WriteOnce},
		{Name: "s_am_account_type", Key: "sAMAccountType", Policy: ReadOnly},
		{Name: "description", Key: "description", Policy: Mutable},
		{Name: "telephone_number", Key: "telephoneNumber", Policy: Mutable},
		{Name: "physical_delivery_office_name", Key: "physicalDeliveryOfficeName", Policy: Mutable},
		{Name: "ms_ds_supported_encryption_types", Key: "msDS-SupportedEncryptionTypes", Policy: Mutable},
		{Name: "sn", Key: "sn", Policy: Mutable},
		{Name: "user_account_control", Key: "userAccountControl", Policy: Mutable},
		{Name: "user_principal_name", Key: "userPrincipalName", Policy: Mutable},
	},
	Filter: "(&(objectClass=organizationalPerson)(instanceType=4))",
	Presets: map[string]Value{
		"object_class": []string{"organizationalPerson", "top", "person", "user"},
	},
	RDN: func(e *Entity) (string, error) {
		name := e.GetString("s_am_account_name")
		if name == "" {
			return "", fmt.Errorf("user has no account name")
		}
		return fmt.Sprintf("CN=%s", session.EscapeDNValue(name)), nil
	},
})

// User is a user account entity.
type User struct {
	*Entity
}

// NewUser creates a local user instance. The DN derives from the account
// name under the parent container, so attrs usually carries at least
// "s_am_account_name" and "parent".
func NewUser(dir Directory, attrs map[string]Value) (*User, error) {
	e, err := New(dir, UserSchema, attrs)
	if err != nil {
		return nil, err
	}
	return &User{Entity: e}, nil
}

// AccountName returns the user's sAMAccountName.
func (u *User) AccountName() string {
	return u.GetString("s_am_account_name")
}

// SID returns the user's security identifier in S-1-5-... form, empty until
// the account exists in the directory.
func (u *User) SID() string {
	return u.GetString("object_sid")
}

// Activated reports whether the account's control flags mark it enabled.
func (u *User) Activated() bool {
	return u.GetString("user_account_control") == userAccountControlActive
}

// Activate marks the account enabled. The change is local until saved.
func (u *User) Activate() error {
	return u.Set("user_account_control", userAccountControlActive)
}

// Save persists the user, activating the account when it is about to be
// created. Directory servers create disabled accounts by default; enabling
// an account that already exists is Activate's job and never happens
// implicitly.
func (u *User) Save(ctx context.Context) error {
	err := u.Refresh(ctx)
	switch {
	case errors.Is(err, ErrNoRemoteEntry):
		if !u.Activated() {
			if err := u.Activate(); err != nil {
				return err
			}
		}
	case err != nil:
		return err
	}
	return u.Entity.Save(ctx)
}

// FindUsers returns every user in the directory subtree under baseDN; pass
// the session root DN to search the whole directory.
func FindUsers(ctx context.Context, dir Directory, baseDN string) ([]*User, error) {
	entities, err := Find(ctx, dir, UserSchema, baseDN, "")
	if err != nil {
		return nil, err
	}

	users := make([]*User, len(entities))
	for i, e := range entities {
		users[i] = &User{Entity: e}
	}
	return users, nil
}
