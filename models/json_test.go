package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_Scan(t *testing.T) {
	var j JSON
	require.NoError(t, j.Scan(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, string(j))

	require.NoError(t, j.Scan([]byte(`["x"]`)))
	assert.Equal(t, []string{"x"}, j.Strings())

	require.NoError(t, j.Scan(nil))
	assert.True(t, j.IsNull())

	assert.Error(t, j.Scan(42))
}

func TestJSON_Value(t *testing.T) {
	v, err := JSON(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = JSON(`{"a":1}`).Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, v)
}

func TestJSON_MarshalInsideStruct(t *testing.T) {
	type wrapper struct {
		Data  JSON `json:"data"`
		Empty JSON `json:"empty"`
	}
	b, err := json.Marshal(wrapper{Data: JSON(`{"k":"v"}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"k":"v"},"empty":null}`, string(b))

	var back wrapper
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "v", back.Data.Map()["k"])
	assert.True(t, back.Empty.IsNull())
}

func TestJSON_Helpers(t *testing.T) {
	assert.Equal(t, map[string]interface{}{}, JSON(nil).Map())
	assert.Equal(t, map[string]interface{}{}, JSON("null").Map())
	assert.Equal(t, []string{}, JSON(`{"a":1}`).Strings())
	assert.Equal(t, `{"q":["a"]}`, string(ToJSON(map[string][]string{"q": {"a"}})))
	assert.Nil(t, ToJSON(make(chan int)))
}

func TestLeadStatusHelpers(t *testing.T) {
	assert.True(t, IsValidLeadStatus(LEAD_STATUS_ARQUIVADO))
	assert.False(t, IsValidLeadStatus("entrante"))
	assert.True(t, IsKanbanStatus(LEAD_STATUS_VENDA_REALIZADA))
	assert.False(t, IsKanbanStatus(LEAD_STATUS_PERDIDO))
	assert.Equal(t, "contato", Lead{UserID: 1}.MissingFields())
}

func TestUserHelpers(t *testing.T) {
	var u User
	u.SetPhone("+55 (11) 98765-4321")
	assert.Equal(t, "5511987654321", u.Phone)
	assert.Equal(t, "551187654321", u.PhoneKey)

	u.QualificationConfig = ToJSON(map[string][]string{"questions": {"CEP?"}})
	assert.Equal(t, []string{"CEP?"}, u.Questions())

	assert.Equal(t, "name", User{}.MissingFields())
	assert.True(t, User{Role: USER_ROLE_ADMIN}.IsAdmin())
}

func TestAvailabilitySlotCovers(t *testing.T) {
	s := AvailabilitySlot{}
	s.StartTime = s.StartTime.AddDate(2025, 0, 0)
	s.EndTime = s.StartTime.Add(3600e9)
	assert.True(t, s.Covers(s.StartTime))
	assert.False(t, s.Covers(s.EndTime))
}
