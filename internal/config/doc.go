// Package config provides the asset manifest for booster deployments.
//
// The manifest is stored in booster.json at the application root
// (booster.yaml and booster.toml are accepted too). It declares the asset
// bundles and carries the asset version, which deployments increment and
// write back.
//
// # Manifest Structure
//
//	{
//	  "version": "5",
//	  "cdnSubDirectory": "myapp",
//	  "debugKey": "dbg",
//	  "cdnUrlPrefix": "https://d195o39hmhpr24.cloudfront.net/",
//	  "libraries": [
//	    {
//	      "name": "main.js",
//	      "files": [
//	        {"path": "/scripts/jquery.js"},
//	        {"path": "/scripts/app.js"},
//	        {"path": "/scripts/less.js", "includeIn": "local"}
//	      ]
//	    },
//	    {"name": "site.css", "files": [{"path": "/styles/site.css"}]}
//	  ]
//	}
//
// # Usage
//
//	m, err := config.Load(appRoot)
//	if err != nil {
//	    return err
//	}
//
//	fmt.Println("Version:", m.Version)
package config
