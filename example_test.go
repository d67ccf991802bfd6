package hindsight_test

import (
	"fmt"

	"github.com/hindsight-io/hindsight"
	"github.com/hindsight-io/hindsight/adapt"
)

// Task is at revision 3. Revision 1 had a title and a done flag; revision 2
// added the priority; revision 3 replaced the legacy done flag with a state
// string.
type Task struct {
	Title    string
	Priority uint8
	State    string
}

var TaskType = hindsight.MustRecordType("task", 3, []hindsight.Field[Task]{
	hindsight.Live("title", adapt.String,
		func(t *Task) *string { return &t.Title }),
	hindsight.Added("priority", 2, adapt.U8,
		func(t *Task) *uint8 { return &t.Priority },
		func(src uint16) (uint8, error) { return 5, nil }),
	hindsight.Retired("done", 1, 3, adapt.Bool,
		func(t *Task, src uint16, old bool) error {
			if old {
				t.State = "done"
			} else {
				t.State = "open"
			}
			return nil
		}),
	hindsight.Added("state", 3, adapt.String,
		func(t *Task) *string { return &t.State },
		func(src uint16) (string, error) { return "open", nil }),
})

func Example() {
	current := Task{Title: "ship it", Priority: 2, State: "open"}
	data, _ := TaskType.Marshal(&current)
	back, _ := TaskType.Unmarshal(data)
	fmt.Println(back.Title, back.Priority, back.State)

	// bytes written by the revision 1 build: title "fix bug", done = true
	legacy := []byte{1, 7, 'f', 'i', 'x', ' ', 'b', 'u', 'g', 1}
	migrated, _ := TaskType.Unmarshal(legacy)
	fmt.Println(migrated.Title, migrated.Priority, migrated.State)

	// Output:
	// ship it 2 open
	// fix bug 5 done
}
