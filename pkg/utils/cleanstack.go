/*
Copyright © 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package utils

import (
	"github.com/hashicorp/go-multierror"
)

type cleanWhen int

const (
	onError cleanWhen = iota
	onSuccess
	always
)

type CleanFunc func() error

type cleanJob struct {
	run  CleanFunc
	when cleanWhen
}

// CleanStack collects the cleanup tasks of an operation, typically closing the
// stores and files it opened. Tasks run in reverse order.
type CleanStack struct {
	jobs []cleanJob
}

func NewCleanStack() *CleanStack {
	return &CleanStack{}
}

// Push adds a task that always runs
func (c *CleanStack) Push(f CleanFunc) {
	c.jobs = append(c.jobs, cleanJob{run: f, when: always})
}

// PushErrorOnly adds a task that only runs if the operation failed
func (c *CleanStack) PushErrorOnly(f CleanFunc) {
	c.jobs = append(c.jobs, cleanJob{run: f, when: onError})
}

// PushSuccessOnly adds a task that only runs if the operation succeeded
func (c *CleanStack) PushSuccessOnly(f CleanFunc) {
	c.jobs = append(c.jobs, cleanJob{run: f, when: onSuccess})
}

// Len returns the number of pending tasks
func (c *CleanStack) Len() int {
	return len(c.jobs)
}

// Cleanup runs and drops every pending task. err is the outcome of the operation,
// it is returned together with any task failure.
func (c *CleanStack) Cleanup(err error) error {
	var errs error
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	for n := len(c.jobs) - 1; n >= 0; n-- {
		job := c.jobs[n]
		failed := errs != nil
		if (job.when == onError && !failed) || (job.when == onSuccess && failed) {
			continue
		}
		if jErr := job.run(); jErr != nil {
			errs = multierror.Append(errs, jErr)
		}
	}
	c.jobs = nil
	if merr, ok := errs.(*multierror.Error); ok && len(merr.Errors) == 1 {
		return merr.Errors[0]
	}
	return errs
}
