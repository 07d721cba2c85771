package utils

import (
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"bitbucket.org/airenas/speechjobs/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

//URLJoin joins urls with '/'
func URLJoin(urls ...string) string {
	u, err := url.Parse(urls[0])
	if err != nil || u.Host == "" {
		return strings.Join(urls, "/")
	}
	u.Path = path.Join(u.Path, path.Join(urls[1:]...))
	return u.String()
}

//GetURLFromConfig retrieves URL from config and checks it
func GetURLFromConfig(name string) (string, error) {
	return validateConfigURL(cmdapp.Config.GetString(name), name)
}

//GetDurationFromConfig retrieves duration from config, returns def if not set
func GetDurationFromConfig(name string, def time.Duration) time.Duration {
	if d := cmdapp.Config.GetDuration(name); d > 0 {
		return d
	}
	return def
}

func validateConfigURL(urlStr, settingName string) (string, error) {
	if urlStr == "" {
		return "", errors.New("No " + settingName + " setting provided")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return "", errors.Wrap(err, "Can't parse url "+urlStr)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.Errorf("Not absolute url '%s' for %s", urlStr, settingName)
	}
	return u.String(), nil
}

//BearerToken extracts the token from 'Authorization: Bearer <token>' header
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

//ReadBody reads at most limit bytes of the body
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

//URLToLog hides the last path element, used for secret callback URLs
func URLToLog(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "xxxx")
	}
	dir, last := path.Split(u.Path)
	if len(last) > 4 {
		u.Path = dir + last[:4] + "..."
	}
	return u.String()
}
