/*
Package migrate upgrades the stored layout of a model to the current version.

The version is read from the v attribute of the <model/> element in the
model+root document of the root wavelet. Steps run in order and never go back:

	0.2 -> 1.0   root map moves from model+root to map+root, map and list
	             documents get a <metadata/> element and references into the
	             old <strings/> index are replaced by s:<value> literals

MigrateIfNecessary reports false for waves that do not hold a model; callers
treat that as "nothing to open". Migration durations are recorded in the
go-metrics timer returned by Timer.
*/
package migrate
