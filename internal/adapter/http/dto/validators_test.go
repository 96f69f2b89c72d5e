package dto

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidators(v)
	return v
}

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CreateWalletRoleRequest{
		Name:        "  treasury  ",
		Description: " Main treasury ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "treasury", req.Name)
	assert.Equal(t, "Main treasury", req.Description)
}

type noteRequest struct {
	Note  string
	Title *string `sanitize:"trim"`
	Tags  []string
}

func TestSanitizeStruct_EscapesUntaggedFields(t *testing.T) {
	title := " <b>Ops</b> "
	req := noteRequest{
		Note:  "fees <script>alert('x')</script>",
		Title: &title,
		Tags:  []string{" <i>hot</i> ", "cold"},
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Note, "&lt;script&gt;")
	assert.NotContains(t, req.Note, "<script>")
	assert.Equal(t, "<b>Ops</b>", *req.Title)
	assert.Equal(t, []string{"&lt;i&gt;hot&lt;/i&gt;", "cold"}, req.Tags)
}

func TestSanitizeStruct_HandlesPointerAndSlice(t *testing.T) {
	label := "  Hot wallet "
	req := UpdateWalletRequest{
		Label: &label,
		Tags:  []string{" ops ", "hot"},
	}
	SanitizeStruct(&req)

	assert.Equal(t, "Hot wallet", *req.Label)
	assert.Equal(t, []string{"ops", "hot"}, req.Tags)
	assert.Nil(t, req.Address)
}

func TestSanitizeStruct_DomainTextRoundTrips(t *testing.T) {
	desc := "Profit & Loss <reserve>"
	label := "R&D vault"
	icon := "coin&bag"

	role := UpdateWalletRoleRequest{Name: strPtr("R&D"), Description: &desc, Icon: &icon}
	SanitizeStruct(&role)
	assert.Equal(t, "R&D", *role.Name)
	assert.Equal(t, desc, *role.Description)
	assert.Equal(t, icon, *role.Icon)

	// Writing back what was read must not change it.
	again := UpdateWalletRoleRequest{Name: role.Name, Description: role.Description}
	SanitizeStruct(&again)
	assert.Equal(t, "R&D", *again.Name)

	wallet := CreateWalletRequest{Label: label, Description: &desc}
	SanitizeStruct(&wallet)
	assert.Equal(t, label, wallet.Label)
	assert.Equal(t, desc, *wallet.Description)
}

func TestSanitizeStruct_KeepsValidatedLength(t *testing.T) {
	v := newValidator()

	// 50 characters with ampersands: valid on input and still 50 afterwards.
	name := "R&D" + strings.Repeat("&", 47)
	require.Len(t, name, 50)
	req := CreateWalletRoleRequest{Name: name}
	require.NoError(t, v.Struct(req))

	SanitizeStruct(&req)
	assert.Len(t, req.Name, 50)
	assert.NoError(t, v.Struct(req))

	label := strings.Repeat("<", 100)
	w := CreateWalletRequest{
		Address: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		Label:   label,
		RoleIDs: []string{"6f1c2a4e-8c1b-4b8e-9a63-0f6a1d2b3c4d"},
	}
	SanitizeStruct(&w)
	assert.Len(t, w.Label, 100)
	assert.NoError(t, v.Struct(w))
}

func strPtr(s string) *string { return &s }

func TestSanitizeStruct_SkipsPassword(t *testing.T) {
	req := LoginRequest{Username: " admin ", Password: " p<a>ss "}
	SanitizeStruct(&req)

	assert.Equal(t, "admin", req.Username)
	assert.Equal(t, " p<a>ss ", req.Password)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	SanitizeStruct("hello")
}

// --- Custom Validator tests ---

func TestSafeID(t *testing.T) {
	for _, tc := range []string{"ops", "REF_002", "a.b.c", "hot-wallet"} {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
	for _, tc := range []string{"ref 001", "ref<001>", "ref;DROP", "", "ref\n001"} {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %q", tc)
	}
}

func TestIsSolanaAddress(t *testing.T) {
	valid := []string{
		"9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		"So11111111111111111111111111111111111111112",
		"11111111111111111111111111111111",
	}
	for _, a := range valid {
		assert.True(t, IsSolanaAddress(a), "expected valid: %s", a)
	}

	invalid := []string{
		"",
		"short",
		"0xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", // '0' is not base58
		"9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin9xQe",
		"1111111111111111111111111111111111111111111", // decodes to 43 zero bytes
	}
	for _, a := range invalid {
		assert.False(t, IsSolanaAddress(a), "expected invalid: %s", a)
	}
}

func TestCreateWalletRequest_Validation(t *testing.T) {
	v := newValidator()

	ok := CreateWalletRequest{
		Address: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		Label:   "Treasury",
		RoleIDs: []string{"6f1c2a4e-8c1b-4b8e-9a63-0f6a1d2b3c4d"},
		Tags:    []string{"ops"},
	}
	require.NoError(t, v.Struct(ok))

	noRoles := ok
	noRoles.RoleIDs = []string{}
	assert.Error(t, v.Struct(noRoles))

	badRole := ok
	badRole.RoleIDs = []string{"nope"}
	assert.Error(t, v.Struct(badRole))

	badCurrency := ok
	cur := "US$"
	badCurrency.Currency = &cur
	assert.Error(t, v.Struct(badCurrency))

	badTag := ok
	badTag.Tags = []string{"has space"}
	assert.Error(t, v.Struct(badTag))
}

func TestRoleRequest_HexColor(t *testing.T) {
	v := newValidator()

	color := "#A1B2C3"
	require.NoError(t, v.Struct(CreateWalletRoleRequest{Name: "ops", Color: &color}))

	bad := "red"
	assert.Error(t, v.Struct(CreateWalletRoleRequest{Name: "ops", Color: &bad}))

	clear := ""
	assert.NoError(t, v.Struct(UpdateWalletRoleRequest{Color: &clear}))
}
