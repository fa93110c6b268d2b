package validate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/robot-management/internal/model"
	"github.com/iliyamo/robot-management/internal/repository"
)

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var ve *Error
	require.True(t, errors.As(err, &ve), "expected *validate.Error, got %T", err)
	return ve.Kind
}

func TestName(t *testing.T) {
	for _, in := range []string{"r2d2", "R2-D2", "Big_Arm", "x", "ABC-123_def"} {
		got, err := Name(in)
		require.NoError(t, err, in)
		assert.Equal(t, strings.ToLower(in), got)
	}
	for _, in := range []string{"", "r2 d2", "robot!", "ünicode", "a/b", "name\n"} {
		_, err := Name(in)
		require.Error(t, err, in)
		assert.Equal(t, InvalidName, kindOf(t, err))
	}
}

func TestNameMessageNamesInput(t *testing.T) {
	_, err := Name("bad name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'bad name'")
}

func TestFutureDate(t *testing.T) {
	now := time.Date(2030, 5, 13, 15, 30, 0, 0, time.UTC)
	want := time.Date(2030, 5, 13, 23, 59, 59, 999999000, time.UTC)

	for _, in := range []string{
		"2030-5-13", "05/13/2030", "May 13 2030", "2030-05-13T08:00:00Z",
		"2030-05-13T23:00:00-05:00", "2030-05-13T01:00:00+09:00",
	} {
		got, err := futureDateAt(in, now)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s -> %s", in, got)
		assert.Equal(t, time.UTC, got.Location())
	}

	got, err := futureDateAt("2031-01-02", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2031, 1, 2, 23, 59, 59, 999999000, time.UTC), got)
}

func TestFutureDateRejectsPastAndGarbage(t *testing.T) {
	now := time.Date(2030, 5, 13, 0, 0, 1, 0, time.UTC)

	_, err := futureDateAt("2030-05-12", now)
	require.Error(t, err)
	assert.Equal(t, InvalidDate, kindOf(t, err))
	assert.Contains(t, err.Error(), "BEFORE")

	_, err = futureDateAt("not a date", now)
	require.Error(t, err)
	assert.Equal(t, InvalidDate, kindOf(t, err))
}

func TestFutureDateKeepsWrittenDayAcrossOffsets(t *testing.T) {
	now := time.Date(2030, 5, 13, 0, 30, 0, 0, time.UTC)

	// 01:00 in Tokyo on the 13th is still the 12th in UTC, but the written
	// day is today and must be accepted.
	got, err := futureDateAt("2030-05-13T01:00:00+09:00", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 13, 23, 59, 59, 999999000, time.UTC), got)

	_, err = futureDateAt("2030-05-12T23:00:00-05:00", now)
	require.Error(t, err)
	assert.Equal(t, InvalidDate, kindOf(t, err))
}

func TestFutureDateUsesClock(t *testing.T) {
	// tomorrow stays valid even if the clock crosses midnight mid-test
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	_, err := FutureDate(tomorrow)
	assert.NoError(t, err)
}

func TestStatus(t *testing.T) {
	ok, err := Status("Success")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Status("Failure")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, in := range []string{"success", "Failed", "", "anything-else-not-exactly-Failure"} {
		_, err := Status(in)
		require.Error(t, err, in)
		assert.Equal(t, InvalidChoice, kindOf(t, err))
	}
}

type fakeLookup struct {
	robots []model.Robot
	tasks  []model.Task
}

func (f fakeLookup) robotBy(match func(model.Robot) bool) (model.Robot, error) {
	for _, r := range f.robots {
		if match(r) {
			return r, nil
		}
	}
	return model.Robot{}, repository.ErrNotFound
}

type robotLookup struct{ fakeLookup }

func (l robotLookup) GetByID(_ context.Context, id uint64) (model.Robot, error) {
	return l.robotBy(func(r model.Robot) bool { return r.ID == id })
}
func (l robotLookup) GetByName(_ context.Context, name string) (model.Robot, error) {
	return l.robotBy(func(r model.Robot) bool { return r.Name == name })
}
func (l robotLookup) TypeExists(_ context.Context, typ string) (bool, error) {
	_, err := l.robotBy(func(r model.Robot) bool { return r.Type == typ })
	return err == nil, nil
}

type taskLookup struct{ fakeLookup }

func (l taskLookup) GetByID(_ context.Context, id uint64) (model.Task, error) {
	for _, t := range l.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, repository.ErrNotFound
}
func (l taskLookup) GetByName(_ context.Context, name string) (model.Task, error) {
	for _, t := range l.tasks {
		if t.Name == name {
			return t, nil
		}
	}
	return model.Task{}, repository.ErrNotFound
}
func (l taskLookup) TypeExists(_ context.Context, typ string) (bool, error) {
	for _, t := range l.tasks {
		if t.Type == typ {
			return true, nil
		}
	}
	return false, nil
}

type brokenLookup struct{ robotLookup }

func (brokenLookup) GetByID(context.Context, uint64) (model.Robot, error) {
	return model.Robot{}, errors.New("connection reset")
}

func TestRefs(t *testing.T) {
	ctx := context.Background()
	data := fakeLookup{
		robots: []model.Robot{{ID: 1, Name: "r1", Type: "arm"}},
		tasks:  []model.Task{{ID: 9, Name: "weld", Type: "build"}},
	}
	robots, tasks := robotLookup{data}, taskLookup{data}

	id, err := RobotRef(ctx, robots, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	_, err = RobotRef(ctx, robots, 2)
	assert.Equal(t, NotFound, kindOf(t, err))
	assert.Contains(t, err.Error(), "Robot with id 2 does not exist")

	id, err = TaskRef(ctx, tasks, 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), id)

	_, err = TaskRef(ctx, tasks, 1)
	assert.Equal(t, NotFound, kindOf(t, err))

	_, err = RobotRef(ctx, brokenLookup{robots}, 1)
	require.Error(t, err)
	var ve *Error
	assert.False(t, errors.As(err, &ve), "storage errors must not look like validation errors")
}

func TestFilterRefs(t *testing.T) {
	ctx := context.Background()
	data := fakeLookup{
		robots: []model.Robot{{ID: 1, Name: "r1", Type: "arm"}},
		tasks:  []model.Task{{ID: 9, Name: "weld", Type: "build"}},
	}
	robots, tasks := robotLookup{data}, taskLookup{data}

	_, err := RobotName(ctx, robots, "r1")
	assert.NoError(t, err)
	_, err = RobotName(ctx, robots, "r9")
	assert.Equal(t, InvalidInput, kindOf(t, err))

	_, err = RobotType(ctx, robots, "arm")
	assert.NoError(t, err)
	_, err = RobotType(ctx, robots, "drone")
	assert.Equal(t, InvalidInput, kindOf(t, err))

	_, err = TaskName(ctx, tasks, "weld")
	assert.NoError(t, err)
	_, err = TaskName(ctx, tasks, "paint")
	assert.Equal(t, InvalidInput, kindOf(t, err))

	_, err = TaskType(ctx, tasks, "build")
	assert.NoError(t, err)
	_, err = TaskType(ctx, tasks, "fold")
	assert.Equal(t, InvalidInput, kindOf(t, err))
}

func TestEchoValidator(t *testing.T) {
	type req struct {
		RobotID uint64 `json:"robot_id" validate:"required"`
		Status  string `json:"status" validate:"required,oneof=Success Failure"`
	}
	v := NewEchoValidator()

	assert.NoError(t, v.Validate(&req{RobotID: 1, Status: "Failure"}))

	err := v.Validate(&req{Status: "Success"})
	require.Error(t, err)
	var ve *Error
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "robot_id", ve.Field)
	assert.Equal(t, InvalidInput, ve.Kind)

	err = v.Validate(&req{RobotID: 1, Status: "Maybe"})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "status", ve.Field)
	assert.Equal(t, InvalidChoice, ve.Kind)
	assert.Contains(t, ve.Msg, "Success, Failure")
}
