package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChecklist(t *testing.T) {
	c, err := GetChecklist(ChecklistFinalSubmission, map[string]bool{"final_cv_title": true, "final_proofread": true, "bogus": true})
	require.NoError(t, err)

	assert.Len(t, c.Items, 15)
	assert.True(t, c.Items[0].Done)
	assert.False(t, c.Items[1].Done)
	assert.Equal(t, 13.3, c.Completion)

	pre, err := GetChecklist(ChecklistPreApplication, nil)
	require.NoError(t, err)
	assert.Len(t, pre.Items, 18)
	assert.Zero(t, pre.Completion)
	assert.Equal(t, "COVER LETTER PREPARATION", pre.Items[10].Category)
}

func TestGetChecklist_DoesNotMutateDefaults(t *testing.T) {
	_, err := GetChecklist(ChecklistPreApplication, map[string]bool{"cl_hook": true})
	require.NoError(t, err)
	c, _ := GetChecklist(ChecklistPreApplication, nil)
	for _, it := range c.Items {
		assert.False(t, it.Done, it.ID)
	}
}

func TestGetChecklist_Unknown(t *testing.T) {
	_, err := GetChecklist("interview", nil)
	assert.Error(t, err)
}

func TestValidChecklistItem(t *testing.T) {
	assert.True(t, ValidChecklistItem(ChecklistPreApplication, "cv_proofread"))
	assert.False(t, ValidChecklistItem(ChecklistFinalSubmission, "cv_proofread"))
}
