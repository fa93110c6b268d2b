package validate

import "github.com/iliyamo/robot-management/internal/model"

// Status accepts exactly "Success" or "Failure" and returns the success
// flag.  The mapping treats anything other than "Failure" as success; with
// the choice check in front only "Success" can take that path.
func Status(s string) (bool, error) {
	if s != model.StatusSuccess && s != model.StatusFailure {
		return false, newError(InvalidChoice,
			"'%s' is not a valid choice. Status must be one of: %s, %s.", s, model.StatusSuccess, model.StatusFailure)
	}
	return s != model.StatusFailure, nil
}
