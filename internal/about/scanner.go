package about

import (
	"github.com/Financial-Times/serverless-plugin-about/internal/service"
)

// FunctionDescriptor lists the about annotations of one declared function.
type FunctionDescriptor struct {
	Name  string       `json:"name"`
	About []AboutEntry `json:"about"`
}

// AboutEntry wraps one about annotation, passed through unmodified.
type AboutEntry struct {
	Info any `json:"info"`
}

// Scan returns one descriptor per declared function, in declaration order. Functions
// without annotated http events get an empty, non-nil About slice.
func Scan(svc *service.Service) []FunctionDescriptor {
	descriptors := make([]FunctionDescriptor, 0, len(svc.Functions))

	for _, fn := range svc.Functions {
		entries := make([]AboutEntry, 0)
		for _, event := range fn.HTTPEvents() {
			if event.HasAbout() {
				entries = append(entries, AboutEntry{Info: event.About})
			}
		}

		descriptors = append(descriptors, FunctionDescriptor{
			Name:  fn.DisplayName(),
			About: entries,
		})
	}

	return descriptors
}

// CountEntries returns the total number of about entries.
func CountEntries(descriptors []FunctionDescriptor) int {
	n := 0
	for _, d := range descriptors {
		n += len(d.About)
	}
	return n
}
