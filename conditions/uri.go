package conditions

import (
	"encoding/base64"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const uriPrefix = "ni:///sha-256;"

// URI renders the condition in the ni: text form:
// ni:///sha-256;<fingerprint>?fpt=<type>&cost=<n>[&subtypes=<a,b>].
func (c Condition) URI() string {
	var sb strings.Builder
	sb.WriteString(uriPrefix)
	sb.WriteString(base64.RawURLEncoding.EncodeToString(c.fingerprint))
	sb.WriteString("?fpt=")
	sb.WriteString(c.typ.Name())
	sb.WriteString("&cost=")
	sb.WriteString(strconv.FormatUint(c.cost, 10))
	if c.subtypes != 0 {
		names := make([]string, 0, c.subtypes.Len())
		for _, id := range c.subtypes.IDs() {
			names = append(names, id.Name())
		}
		sort.Strings(names)
		sb.WriteString("&subtypes=")
		sb.WriteString(strings.Join(names, ","))
	}
	return sb.String()
}

// ParseConditionURI parses the ni: form produced by URI. Only registered
// types are accepted.
func ParseConditionURI(s string) (Condition, error) {
	if s == "" {
		return Condition{}, conderr(CC_ERR_NULL_INPUT, "condition URI is required")
	}
	u, err := url.Parse(s)
	if err != nil {
		return Condition{}, conderr(CC_ERR_DECODE, "malformed URI: "+err.Error())
	}
	if u.Scheme != "ni" || u.Host != "" {
		return Condition{}, conderr(CC_ERR_DECODE, "URI must use the ni scheme without an authority")
	}
	alg, encoded, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), ";")
	if !ok || alg != "sha-256" {
		return Condition{}, conderr(CC_ERR_DECODE, "URI must name the sha-256 hash function")
	}
	fp, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Condition{}, conderr(CC_ERR_DECODE, "fingerprint is not unpadded base64url")
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return Condition{}, conderr(CC_ERR_DECODE, "malformed URI query: "+err.Error())
	}

	v, ok := LookupVariantByName(q.Get("fpt"))
	if !ok {
		return Condition{}, conderr(CC_ERR_UNSUPPORTED_TYPE, "unknown fingerprint type "+strconv.Quote(q.Get("fpt")))
	}
	costText := q.Get("cost")
	if costText == "" {
		return Condition{}, conderr(CC_ERR_DECODE, "URI lacks a cost")
	}
	cost, err := strconv.ParseUint(costText, 10, 32)
	if err != nil {
		return Condition{}, conderr(CC_ERR_DECODE, "invalid cost "+strconv.Quote(costText))
	}

	var subtypes TypeSet
	if raw, present := q["subtypes"]; present {
		if !v.Compound {
			return Condition{}, conderr(CC_ERR_DECODE, v.Name+" conditions carry no subtypes")
		}
		for _, name := range strings.Split(strings.Join(raw, ","), ",") {
			if name == "" {
				continue
			}
			id, ok := subtypeID(name)
			if !ok {
				return Condition{}, conderr(CC_ERR_UNSUPPORTED_TYPE, "unknown subtype "+strconv.Quote(name))
			}
			subtypes = subtypes.Add(id)
		}
	}
	c, err := NewCondition(v.ID, fp, cost, subtypes)
	if err != nil {
		if code, _ := ErrorCodeOf(err); code == CC_ERR_PARAM {
			return Condition{}, conderr(CC_ERR_DECODE, err.(*CondError).Msg)
		}
		return Condition{}, err
	}
	return c, nil
}

// subtypeID resolves a subtype name. Unregistered ids carried by opaque
// sub-conditions appear as "unknown-N", the form TypeID.Name renders.
func subtypeID(name string) (TypeID, bool) {
	if v, ok := LookupVariantByName(name); ok {
		return v.ID, true
	}
	digits, ok := strings.CutPrefix(name, "unknown-")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, 10, 5)
	if err != nil || strconv.FormatUint(n, 10) != digits {
		return 0, false
	}
	if _, registered := lookupVariant(TypeID(n)); registered {
		return 0, false
	}
	return TypeID(n), true
}
