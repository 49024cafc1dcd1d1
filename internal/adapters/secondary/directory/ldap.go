package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/hdesk/helpdesk-backend/internal/config"
	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	apperrors "github.com/hdesk/helpdesk-backend/internal/core/errors"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// LDAPAuthenticator verifies credentials against an LDAP or Active Directory
// server. Each login dials a fresh connection; directory logins are rare
// enough that pooling is not worth the reconnect handling.
type LDAPAuthenticator struct {
	cfg    config.LDAPConfig
	logger *slog.Logger
}

var _ ports.DirectoryAuthenticator = (*LDAPAuthenticator)(nil)

func NewLDAPAuthenticator(cfg config.LDAPConfig, logger *slog.Logger) *LDAPAuthenticator {
	return &LDAPAuthenticator{cfg: cfg, logger: logger}
}

// Enabled reports whether a directory server is configured.
func (a *LDAPAuthenticator) Enabled() bool {
	return a.cfg.URL != ""
}

func (a *LDAPAuthenticator) Authenticate(ctx context.Context, username, password string) (*ports.DirectoryUser, error) {
	if !a.Enabled() {
		return nil, apperrors.ErrInvalidCredentials
	}
	if password == "" {
		// An empty password would turn the verify bind into an
		// anonymous bind, which many servers accept.
		return nil, apperrors.ErrInvalidCredentials
	}

	conn, err := a.dial(ctx)
	if err != nil {
		a.logger.Error("directory connection failed", "url", a.cfg.URL, "error", err)
		return nil, fmt.Errorf("connecting to directory: %w", err)
	}
	defer conn.Close()

	if a.cfg.BindDN != "" {
		if err := conn.Bind(a.cfg.BindDN, a.cfg.BindPassword); err != nil {
			a.logger.Error("directory service bind failed", "bind_dn", a.cfg.BindDN, "error", err)
			return nil, fmt.Errorf("binding service account: %w", err)
		}
	}

	entry, err := a.findUser(conn, username)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := conn.Bind(entry.DN, password); err != nil {
		a.logger.Info("directory password rejected", "username", username)
		return nil, apperrors.ErrInvalidCredentials
	}

	return a.directoryUser(username, entry), nil
}

func (a *LDAPAuthenticator) dial(ctx context.Context) (*ldap.Conn, error) {
	dialer := &net.Dialer{Timeout: a.cfg.ConnectTimeout}
	conn, err := ldap.DialURL(a.cfg.URL, ldap.DialWithDialer(dialer))
	if err != nil {
		return nil, err
	}
	conn.SetTimeout(a.cfg.ConnectTimeout)

	if a.cfg.StartTLS {
		host := serverName(a.cfg.URL)
		if err := conn.StartTLS(&tls.Config{ServerName: host}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("starting TLS: %w", err)
		}
	}

	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			conn.SetTimeout(remaining)
		}
	}
	return conn, nil
}

func (a *LDAPAuthenticator) findUser(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	filter := a.cfg.UserFilter
	escaped := ldap.EscapeFilter(username)
	filter = strings.ReplaceAll(filter, "%s", escaped)

	req := ldap.NewSearchRequest(
		a.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		1, 0, false,
		filter,
		[]string{"dn", "mail", "displayName", "cn", "givenName", "sn", "memberOf"},
		nil,
	)

	result, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("directory search: %w", err)
	}
	if len(result.Entries) == 0 {
		return nil, nil
	}
	return result.Entries[0], nil
}

func (a *LDAPAuthenticator) directoryUser(username string, entry *ldap.Entry) *ports.DirectoryUser {
	fullName := entry.GetAttributeValue("displayName")
	if fullName == "" {
		given := entry.GetAttributeValue("givenName")
		surname := entry.GetAttributeValue("sn")
		switch {
		case given != "" && surname != "":
			fullName = given + " " + surname
		case given != "":
			fullName = given
		default:
			fullName = entry.GetAttributeValue("cn")
		}
	}
	if fullName == "" {
		fullName = username
	}

	email := entry.GetAttributeValue("mail")
	if email == "" {
		email = strings.ToLower(username) + "@local"
	}

	return &ports.DirectoryUser{
		Username: strings.ToLower(username),
		Email:    strings.ToLower(email),
		FullName: fullName,
		Role:     a.roleFromGroups(entry.GetAttributeValues("memberOf")),
	}
}

// roleFromGroups maps directory group membership to an application role by
// the CN of each memberOf value. Admin groups win over technician groups.
func (a *LDAPAuthenticator) roleFromGroups(memberOf []string) domain.Role {
	names := make([]string, 0, len(memberOf))
	for _, dn := range memberOf {
		if cn := groupCN(dn); cn != "" {
			names = append(names, cn)
		}
	}

	for _, name := range names {
		for _, admin := range a.cfg.AdminGroups {
			if strings.EqualFold(name, admin) {
				return domain.RoleAdmin
			}
		}
	}
	for _, name := range names {
		for _, tech := range a.cfg.TechGroups {
			if strings.EqualFold(name, tech) {
				return domain.RoleTechnician
			}
		}
	}
	return domain.RoleUser
}

// groupCN extracts the leading CN from a group DN such as
// "CN=Helpdesk Admins,OU=Groups,DC=example,DC=com".
func groupCN(dn string) string {
	first, _, _ := strings.Cut(dn, ",")
	key, value, found := strings.Cut(first, "=")
	if !found || !strings.EqualFold(strings.TrimSpace(key), "cn") {
		return ""
	}
	return strings.TrimSpace(value)
}

func serverName(url string) string {
	rest := url
	if _, after, found := strings.Cut(url, "://"); found {
		rest = after
	}
	host, _, err := net.SplitHostPort(rest)
	if err != nil {
		return rest
	}
	return host
}
