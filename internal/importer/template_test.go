package importer

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/testutil"
)

func TestTemplate_DefaultAnchor(t *testing.T) {
	res, err := TemplateDecoder{}.Decode(bytes.NewReader(testutil.MinimalTemplate().Bytes()))
	require.NoError(t, err)
	p := res.Project

	require.NotNil(t, p.Properties.StartDate)
	assert.Equal(t, DefaultTemplateStart, *p.Properties.StartDate)
	require.Len(t, p.Tasks, 2)
	assert.Equal(t, DefaultTemplateStart, *p.Tasks[0].Start)
	assert.Equal(t, DefaultTemplateStart.Add(960*time.Minute), *p.Tasks[0].Finish)
	assert.Nil(t, p.Tasks[1].Start)
	assert.Nil(t, p.Tasks[1].Finish)
	assert.Len(t, p.Dependencies, 1)
	assert.Len(t, p.Assignments, 1)
}

func TestTemplate_Anchors(t *testing.T) {
	declared := testutil.Date(2024, 3, 4, 8, 0)
	option := testutil.Date(2025, 1, 6, 9, 0)

	t.Run("option used when template has no start", func(t *testing.T) {
		dec := TemplateDecoder{Start: &option}
		res, err := dec.Decode(bytes.NewReader(testutil.MinimalTemplate().Bytes()))
		require.NoError(t, err)
		assert.Equal(t, option, *res.Project.Properties.StartDate)
		assert.Equal(t, option, *res.Project.Tasks[0].Start)
	})

	t.Run("declared start wins", func(t *testing.T) {
		f := testutil.MinimalTemplate()
		f.Start = testutil.EpochMinutes(declared)
		dec := TemplateDecoder{Start: &option}
		res, err := dec.Decode(bytes.NewReader(f.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, declared, *res.Project.Properties.StartDate)
		assert.Equal(t, declared.Add(960*time.Minute), *res.Project.Tasks[0].Finish)
	})

	t.Run("option through ForFormat", func(t *testing.T) {
		dec, err := ForFormat(TemplateDecoder{}.Format(), Options{TemplateStart: &option})
		require.NoError(t, err)
		res, err := dec.Decode(bytes.NewReader(testutil.MinimalTemplate().Bytes()))
		require.NoError(t, err)
		assert.Equal(t, option, *res.Project.Properties.StartDate)
	})
}

func TestTemplate_ProgressCleared(t *testing.T) {
	res, err := TemplateDecoder{}.Decode(bytes.NewReader(testutil.MinimalTemplate().Bytes()))
	require.NoError(t, err)

	for _, task := range res.Project.Tasks {
		assert.Nil(t, task.PercentComplete, task.Name)
	}
	require.Len(t, res.Notes, 1)
	assert.Equal(t, domain.NoteTemplateProgressCleared, res.Notes[0].Code)
	assert.Contains(t, res.Notes[0].Message, "1 task(s)")
}

func TestTemplate_NoProgressNoNote(t *testing.T) {
	f := testutil.MinimalTemplate()
	f.Tasks[0].Percent = 0

	res, err := TemplateDecoder{}.Decode(bytes.NewReader(f.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, res.Notes)
}

func TestTemplate_RejectsProjectContainer(t *testing.T) {
	_, err := TemplateDecoder{}.Decode(bytes.NewReader(testutil.MinimalStructured().Bytes()))
	assert.ErrorIs(t, err, domain.ErrCorruptStructure)
}

func TestTemplate_TrailingBytesRejected(t *testing.T) {
	data := append(testutil.MinimalTemplate().Bytes(), "junk"...)
	_, err := TemplateDecoder{}.Decode(bytes.NewReader(data))
	require.ErrorIs(t, err, domain.ErrCorruptStructure)
	assert.Contains(t, err.Error(), `after "END " chunk`)
}
