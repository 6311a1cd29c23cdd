// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oauth1

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const referenceHeader = `OAuth oauth_consumer_key="ck",oauth_signature_method="HMAC-SHA1",` +
	`oauth_timestamp="1400000000",oauth_nonce="N1",oauth_version="1.0",oauth_token="at",` +
	`oauth_signature="dMaxcp%2BaNiVm2NP6smvtOov46cY%3D"`

func TestAuthHeaderSerialization(t *testing.T) {
	Convey("Authorization header conversion", t, func() {
		Convey("works from string to struct with valid inputs", func() {
			var fresh AuthorizationHeader
			err := fresh.Parse(referenceHeader)
			So(err, ShouldBeNil)
			So(fresh.Get(ParamConsumerKey), ShouldEqual, "ck")
			So(fresh.Get(ParamToken), ShouldEqual, "at")
			So(len(fresh.Params), ShouldEqual, 6)
			So(base64.StdEncoding.EncodeToString(fresh.Signature), ShouldEqual, "dMaxcp+aNiVm2NP6smvtOov46cY=")
		})

		Convey("tolerates whitespace and a realm", func() {
			var fresh AuthorizationHeader
			err := fresh.Parse(`OAuth realm="Photos",  oauth_consumer_key="dpf43f3p2l4k3l03",
				oauth_nonce="kllo9940pd9333jh" , oauth_signature="dA%3D%3D"`)
			So(err, ShouldBeNil)
			So(fresh.Realm, ShouldEqual, "Photos")
			So(fresh.Get(ParamNonce), ShouldEqual, "kllo9940pd9333jh")
			So(fresh.Signature, ShouldResemble, []byte("t"))
		})

		Convey("decodes percent-encoded values", func() {
			var fresh AuthorizationHeader
			So(fresh.Parse(`OAuth oauth_consumer_key="a%20b%2Bc"`), ShouldBeNil)
			So(fresh.Get(ParamConsumerKey), ShouldEqual, "a b+c")
		})

		Convey("yields the expected errors on invalid input", func() {
			var fresh AuthorizationHeader
			err := fresh.Parse(strings.Replace(referenceHeader, "OAuth ", "Signature ", 1))
			So(err, ShouldNotBeNil)
			So(err.SuggestedResponseCode(), ShouldEqual, http.StatusUnauthorized)

			So(fresh.Parse(""), ShouldNotBeNil)

			for _, broken := range []string{
				strings.Replace(referenceHeader, "OAuth ", "OAuth 3", 1),
				strings.Replace(referenceHeader, "oauth_token=", "oauth_token→", 1),
				strings.Replace(referenceHeader, `"ck"`, "ck", 1),
				strings.Replace(referenceHeader, `%3D"`, `%3D%"`, 1),
				strings.Replace(referenceHeader, `%3D"`, `!!"`, 1),
				referenceHeader + `,oauth_nonce="again"`,
			} {
				err = fresh.Parse(broken)
				So(err, ShouldNotBeNil)
				So(err.SuggestedResponseCode(), ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

func TestAuthHeaderChecks(t *testing.T) {
	Convey("A sufficiently specified Authorization header", t, func() {
		var a AuthorizationHeader
		So(a.Parse(referenceHeader), ShouldBeNil)
		u, _ := url.Parse("https://api.example.com/1.1/account/verify_credentials.json")

		Convey("passes the formal check within tolerance", func() {
			So(a.CheckFormal(1400000000, 0), ShouldBeNil)
			So(a.CheckFormal(1400000000+4, 1<<2), ShouldBeNil)
			So(a.CheckFormal(1400000000-4, 1<<2), ShouldBeNil)
		})

		Convey("doesn't pass on excessive timestamp differences", func() {
			err := a.CheckFormal(1400000000+5, 1<<2)
			So(err, ShouldNotBeNil)
			So(err.SuggestedResponseCode(), ShouldEqual, http.StatusForbidden)
		})

		Convey("is satisfied by valid inputs", func() {
			So(a.SatisfiedBy("GET", u, nil, "cs", "ats"), ShouldBeTrue)
		})

		Convey("rejects forged inputs", func() {
			So(a.SatisfiedBy("GET", u, nil, "cs!", "ats"), ShouldBeFalse)
			So(a.SatisfiedBy("GET", u, nil, "cs", ""), ShouldBeFalse)
			So(a.SatisfiedBy("POST", u, nil, "cs", "ats"), ShouldBeFalse)
			So(a.SatisfiedBy("GET", u, Params{{"x", "1"}}, "cs", "ats"), ShouldBeFalse)
		})
	})

	Convey("The formal check insists on", t, func() {
		Convey("all mandatory parameters", func() {
			for _, drop := range []string{ParamConsumerKey, ParamSignatureMethod, ParamTimestamp, ParamNonce, ParamSignature} {
				var a AuthorizationHeader
				So(a.Parse(referenceHeader), ShouldBeNil)
				if drop == ParamSignature {
					a.Signature = nil
				} else {
					kept := a.Params[:0]
					for _, p := range a.Params {
						if p.Key != drop {
							kept = append(kept, p)
						}
					}
					a.Params = kept
				}
				err := a.CheckFormal(1400000000, 4)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, drop)
			}
		})

		Convey("HMAC-SHA1 and version 1.0", func() {
			var a AuthorizationHeader
			So(a.Parse(strings.Replace(referenceHeader, "HMAC-SHA1", "PLAINTEXT", 1)), ShouldBeNil)
			So(a.CheckFormal(1400000000, 4), ShouldEqual, errSignatureMethod)
			So(a.Parse(strings.Replace(referenceHeader, `"1.0"`, `"2.0"`, 1)), ShouldBeNil)
			So(a.CheckFormal(1400000000, 4), ShouldEqual, errVersion)
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given secrets", t, func() {
		secrets := Secrets{Consumers: make(SecretStore), Tokens: make(SecretStore)}
		So(secrets.Consumers.Insert([]string{"ck=cs"}), ShouldBeNil)
		So(secrets.Tokens.Insert([]string{"at=ats", "other=a=b"}), ShouldBeNil)
		So(secrets.Tokens["other"], ShouldEqual, "a=b")
		So(secrets.Tokens.Insert([]string{"nosecret"}), ShouldNotBeNil)
		origin, _ := url.Parse("https://api.example.com")

		Convey("a correctly signed request passes", func() {
			r := httptest.NewRequest("GET", "/1.1/account/verify_credentials.json", nil)
			r.Header.Set("Authorization", referenceHeader)
			a, err := Verify(r, origin, secrets, 1400000001, 4)
			So(err, ShouldBeNil)
			So(a.Get(ParamToken), ShouldEqual, "at")
		})

		Convey("a form-encoded body takes part in the signature", func() {
			body := "status=Hello%20Ladies%20%2B%20Gentlemen%2C%20a%20signed%20OAuth%20request%21"
			r := httptest.NewRequest("POST", "/1.1/statuses/update.json?include_entities=true", strings.NewReader(body))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			r.Header.Set("Authorization", strings.Replace(referenceHeader, "dMaxcp%2BaNiVm2NP6smvtOov46cY%3D",
				Encode("69UAOwzSJnhXlVJyTfGicgIS/UU="), 1))
			_, err := Verify(r, origin, secrets, 1400000000, 4)
			So(err, ShouldBeNil)

			Convey("and can be read again afterwards", func() {
				So(r.ParseForm(), ShouldBeNil)
				So(r.PostForm.Get("status"), ShouldEqual, "Hello Ladies + Gentlemen, a signed OAuth request!")
			})
		})

		Convey("an oversized form body is refused, and left intact", func() {
			body := "status=" + strings.Repeat("a", maxFormBody+100)
			r := httptest.NewRequest("POST", "/1.1/statuses/update.json", strings.NewReader(body))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			r.Header.Set("Authorization", referenceHeader)
			_, err := Verify(r, origin, secrets, 1400000000, 4)
			So(err, ShouldEqual, errFormTooLarge)
			So(err.SuggestedResponseCode(), ShouldEqual, http.StatusRequestEntityTooLarge)

			remainder, readErr := io.ReadAll(r.Body)
			So(readErr, ShouldBeNil)
			So(len(remainder), ShouldEqual, len(body))
			So(string(remainder) == body, ShouldBeTrue)
		})

		Convey("unknown tokens are forbidden", func() {
			r := httptest.NewRequest("GET", "/1.1/account/verify_credentials.json", nil)
			r.Header.Set("Authorization", referenceHeader)
			delete(secrets.Tokens, "at")
			_, err := Verify(r, origin, secrets, 1400000000, 4)
			So(err.SuggestedResponseCode(), ShouldEqual, http.StatusForbidden)
		})

		Convey("a different path does not verify", func() {
			r := httptest.NewRequest("GET", "/1.1/account/settings.json", nil)
			r.Header.Set("Authorization", referenceHeader)
			_, err := Verify(r, origin, secrets, 1400000000, 4)
			So(err.SuggestedResponseCode(), ShouldEqual, http.StatusUnauthorized)
		})

		Convey("nothing passes without any secrets", func() {
			r := httptest.NewRequest("GET", "/1.1/account/verify_credentials.json", nil)
			r.Header.Set("Authorization", referenceHeader)
			_, err := Verify(r, origin, Secrets{}, 1400000000, 4)
			So(err.SuggestedResponseCode(), ShouldEqual, http.StatusForbidden)
		})
	})
}

func TestRequestURL(t *testing.T) {
	Convey("RequestURL", t, func() {
		r := httptest.NewRequest("GET", "http://internal:8080/a/b?c=d", nil)
		So(RequestURL(r, nil).String(), ShouldEqual, "http://internal:8080/a/b?c=d")
		origin, _ := url.Parse("https://api.example.com")
		So(RequestURL(r, origin).String(), ShouldEqual, "https://api.example.com/a/b?c=d")
	})
}

func TestRawParams(t *testing.T) {
	Convey("RawParams", t, func() {
		Convey("reads form bodies right up to the limit", func() {
			body := "a=" + strings.Repeat("b", maxFormBody-2)
			r := httptest.NewRequest("POST", "/?q=1", strings.NewReader(body))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
			params, err := RawParams(r)
			So(err, ShouldBeNil)
			So(params, ShouldHaveLength, 2)

			again, _ := io.ReadAll(r.Body)
			So(len(again), ShouldEqual, maxFormBody)
		})

		Convey("ignores bodies of other types", func() {
			r := httptest.NewRequest("POST", "/?q=1", strings.NewReader("a=b"))
			r.Header.Set("Content-Type", "text/plain")
			params, err := RawParams(r)
			So(err, ShouldBeNil)
			So(params, ShouldHaveLength, 1)
		})

		Convey("does not swallow one byte past the limit", func() {
			body := strings.Repeat("c", maxFormBody+1)
			r := httptest.NewRequest("POST", "/", strings.NewReader(body))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			_, err := RawParams(r)
			So(err, ShouldEqual, errFormTooLarge)

			again, _ := io.ReadAll(r.Body)
			So(len(again), ShouldEqual, maxFormBody+1)
		})
	})
}
