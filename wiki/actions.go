package wiki

// tokenSpec names the request parameter that carries a token and the
// token type to fetch for it.
type tokenSpec struct {
	param     string
	tokenType string
}

// actionTokens maps an API action to its token parameter and token type.
// It is never mutated.
var actionTokens = map[string]tokenSpec{
	"abusefilterunblockautopromote":     {"token", "csrf"},
	"abuselogprivatedetails":            {"token", "csrf"},
	"block":                             {"token", "csrf"},
	"centralnoticecdncacheupdatebanner": {"token", "csrf"},
	"changeauthenticationdata":          {"changeauthtoken", "csrf"},
	"changecontentmodel":                {"changeauthtoken", "csrf"},
	"clientlogin":                       {"logintoken", "login"},
	"createaccount":                     {"createtoken", "createaccount"},
	"cxdelete":                          {"token", "csrf"},
	"cxpublish":                         {"token", "csrf"},
	"cxsave":                            {"token", "csrf"},
	"cxsuggestionlist":                  {"token", "csrf"},
	"cxtoken":                           {"token", "csrf"},
	"delete":                            {"token", "csrf"},
	"deleteglobalaccount":               {"token", "deleteglobalaccount"},
	"echomarkread":                      {"token", "csrf"},
	"echomute":                          {"token", "csrf"},
	"edit":                              {"token", "csrf"},
	"editmassmessagelist":               {"token", "csrf"},
	"emailuser":                         {"token", "csrf"},
	"filerevert":                        {"token", "csrf"},
	"globalblock":                       {"token", "csrf"},
	"globalpreferenceoverrides":         {"token", "csrf"},
	"globalpreferences":                 {"token", "csrf"},
	"globaluserrights":                  {"token", "userrights"},
	"import":                            {"token", "userrights"},
	"linkaccount":                       {"linktoken", "csrf"},
	"login":                             {"lgtoken", "login"},
	"logout":                            {"token", "csrf"},
	"managetags":                        {"token", "csrf"},
	"move":                              {"token", "csrf"},
	"oathvalidate":                      {"token", "csrf"},
	"pagetriageaction":                  {"token", "csrf"},
	"pagetriagetagcopyvio":              {"token", "csrf"},
	"pagetriagetagging":                 {"token", "csrf"},
	"patrol":                            {"token", "patrol"},
	"protect":                           {"token", "csrf"},
	"readinglists":                      {"token", "csrf"},
	"removeauthenticationdata":          {"token", "csrf"},
	"resetpassword":                     {"token", "csrf"},
	"review":                            {"token", "csrf"},
	"reviewactivity":                    {"token", "csrf"},
	"revisiondelete":                    {"token", "csrf"},
	"rollback":                          {"token", "rollback"},
	"setglobalaccountstatus":            {"token", "setglobalaccountstatus"},
	"setnotificationtimestamp":          {"token", "csrf"},
	"setpagelanguage":                   {"token", "csrf"},
	"stabilize":                         {"token", "csrf"},
	"stashedit":                         {"token", "csrf"},
	"strikevote":                        {"token", "csrf"},
	"tag":                               {"token", "csrf"},
	"thank":                             {"token", "csrf"},
	"transcodereset":                    {"token", "csrf"},
	"ulssetlang":                        {"token", "csrf"},
	"unblock":                           {"token", "csrf"},
	"undelete":                          {"token", "csrf"},
	"unlinkaccount":                     {"token", "csrf"},
	"upload":                            {"token", "csrf"},
	"userrights":                        {"token", "userrights"},
	"visualeditoredit":                  {"token", "csrf"},
	"watch":                             {"token", "watch"},
	"wikilove":                          {"token", "csrf"},
}

// loginRequiredActions are logged in before their first request
var loginRequiredActions = map[string]bool{
	"patrol": true,
	"upload": true,
}

// TokenParam returns the token parameter name and token type required by
// action. Both are empty when the action needs no token.
func TokenParam(action string) (param, tokenType string) {
	spec, ok := actionTokens[action]
	if !ok {
		return "", ""
	}
	return spec.param, spec.tokenType
}

// RequiresLogin reports whether action is only accepted from a logged-in user
func RequiresLogin(action string) bool {
	return loginRequiredActions[action]
}
