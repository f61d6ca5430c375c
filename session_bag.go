package shopbag

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/eringen/shopbag/bag"
)

const (
	sessionBagKey      = "bag"
	sessionOverflowKey = "bag_overflow"

	// sessionCookieMaxLength is the encoded cookie limit set on the session
	// store; securecookie's default.
	sessionCookieMaxLength = 4096
)

// errSessionOverflow marks a bag too large for the session cookie. The
// visitor's bag then lives in bag storage until it fits again.
var errSessionOverflow = errors.New("shopbag: bag does not fit in the session cookie")

// sessionStorage keeps a bag in the visitor's session cookie. Wrapped in
// bag.NewLocal it serves as the bag delegate when Config.SessionBag is set;
// any error it returns sends that operation to bag storage.
type sessionStorage struct {
	c    echo.Context
	sess *sessions.Session
}

func newSessionDelegate(c echo.Context) (bag.Delegate, error) {
	sess, err := shopSessionFor(c)
	if err != nil {
		return nil, err
	}
	return bag.NewLocal(&sessionStorage{c: c, sess: sess}), nil
}

func (s *sessionStorage) Get(key string) (string, bool, error) {
	if key != sessionBagKey {
		return "", false, nil
	}
	if over, _ := s.sess.Values[sessionOverflowKey].(bool); over {
		return "", false, errSessionOverflow
	}
	v, ok := s.sess.Values[sessionBagKey].(string)
	return v, ok, nil
}

func (s *sessionStorage) Set(key, value string) error {
	if key != sessionBagKey {
		return nil
	}
	s.sess.Values[sessionBagKey] = value
	delete(s.sess.Values, sessionOverflowKey)
	size, err := encodedSize(s.sess.Values)
	if err != nil {
		return err
	}
	if size <= sessionCookieMaxLength {
		return s.save()
	}
	delete(s.sess.Values, sessionBagKey)
	s.sess.Values[sessionOverflowKey] = true
	if err := s.save(); err != nil {
		return err
	}
	return errSessionOverflow
}

func (s *sessionStorage) Remove(key string) error {
	if key != sessionBagKey {
		return nil
	}
	delete(s.sess.Values, sessionBagKey)
	return s.save()
}

func (s *sessionStorage) save() error {
	return s.sess.Save(s.c.Request(), s.c.Response())
}

// encodedSize returns the length of the cookie value securecookie produces
// for values with an HMAC-SHA256 hash key and no encryption: the gob payload
// is base64 encoded, joined as "date|payload|mac" and base64 encoded again.
func encodedSize(values map[interface{}]interface{}) (int, error) {
	raw, err := securecookie.GobEncoder{}.Serialize(values)
	if err != nil {
		return 0, err
	}
	date := len(strconv.FormatInt(time.Now().UTC().Unix(), 10))
	signed := date + 1 + base64.URLEncoding.EncodedLen(len(raw)) + 1 + sha256.Size
	return base64.URLEncoding.EncodedLen(signed), nil
}
