// Package preflight provides readiness checks for the filesystem paths and
// external tools speakerid depends on.
//
// These checks run in two contexts:
//   - The CLI runs RunAll before starting a pipeline run so a run never
//     starts against an unwritable work directory.
//   - The "speakerid check" command lists every check, including the
//     external tool requirements from CheckSystemDeps.
package preflight
