/*
Package retention prunes pkg/timeseries under a priority-ordered set of
glob rules. Each RetentionRule matches a metric name pattern and
optional label filters; the highest-priority matching rule wins, and a
rule may set MinPointsToKeep to guarantee a floor of recent points
survives even past its own retention window.

RetentionManager.Apply sweeps every known metric name, resolves its
rule, and deletes samples older than now-retention down to that floor.
StartAuto runs the sweep on a fixed period in the background; errors
during a sweep are logged and do not stop the loop.
*/
package retention
