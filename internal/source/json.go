package source

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// parseJSON accepts either a top-level array of tasks or an object with a
// "tasks" array. Ids may be numbers or strings; predecessors may be an array
// or a semicolon-separated string.
func parseJSON(r io.Reader) ([]RawTask, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("parse json: invalid document")
	}

	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = root.Get("tasks")
	}
	if !root.IsArray() {
		return nil, errors.New("parse json: expected an array of tasks")
	}

	var (
		tasks    []RawTask
		parseErr error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		task, err := jsonTask(value)
		if err != nil {
			parseErr = fmt.Errorf("json task %d: %w", key.Int()+1, err)
			return false
		}
		tasks = append(tasks, task)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return tasks, nil
}

func jsonTask(v gjson.Result) (RawTask, error) {
	if !v.IsObject() {
		return RawTask{}, errors.New("expected an object")
	}

	id := v.Get("id")
	if !id.Exists() {
		return RawTask{}, errors.New("missing id")
	}
	dur := v.Get("duration")
	if dur.Type != gjson.Number {
		return RawTask{}, fmt.Errorf("task %s: duration must be a number", jsonID(id))
	}
	if f := dur.Float(); f != math.Trunc(f) {
		return RawTask{}, fmt.Errorf("task %s: duration %s is not a whole number", jsonID(id), dur.Raw)
	}

	task := RawTask{
		ID:       jsonID(id),
		Name:     v.Get("name").String(),
		Duration: int(dur.Int()),
	}

	preds := v.Get("predecessors")
	switch {
	case preds.IsArray():
		for _, p := range preds.Array() {
			if s := jsonID(p); s != "" {
				task.Predecessors = append(task.Predecessors, s)
			}
		}
	case preds.Type == gjson.String:
		task.Predecessors = SplitPredecessors(preds.String())
	case preds.Type == gjson.Number:
		task.Predecessors = []string{jsonID(preds)}
	}
	return task, nil
}

// jsonID renders an id so that 2, 2.0 and "2" all name the same task.
func jsonID(v gjson.Result) string {
	if v.Type == gjson.Number {
		if f := v.Float(); f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return strconv.FormatInt(int64(f), 10)
		}
		return v.Raw
	}
	return v.String()
}
