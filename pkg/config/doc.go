/*
Package config loads feedmirror settings.

	            +-------------+
	            |   Default   |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   JSON   | |   HCL    |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Provides defaults for the manifest, feed and mirror passes
- Overlays an optional config file chosen by extension
- Rejects unknown fields and invalid values

🔄 Flow:
1. Start from Default()
2. Decode the file over it (unset values keep their defaults)
3. Validate

HCL files may reference the environment:

	mirror {
	  repo_base = "https://raw.githubusercontent.com/${env.GH_OWNER}/product-images/main/giga_mirror"
	}

🔍 Example:

	cfg, err := config.LoadConfig(ctx, ".feedmirror.yaml")
	if err != nil {
		return err
	}
	timeout := cfg.Mirror.Timeout()
*/
package config
